package service

import (
	"context"
	"errors"
	"testing"

	bookserrors "pustaka/internal/books/errors"
	"pustaka/internal/books/validator"
	"pustaka/pkg/auth"
	"pustaka/pkg/config"
	apperrors "pustaka/pkg/errors"
	"pustaka/pkg/logger"
	"pustaka/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBookRepository struct {
	createFunc      func(ctx context.Context, book *model.Book) error
	findByIDFunc    func(ctx context.Context, id string) (*model.Book, error)
	findAllFunc     func(ctx context.Context, limit int, offset int64) ([]*model.Book, error)
	searchFunc      func(ctx context.Context, query string, limit int, offset int64) ([]*model.Book, error)
	adjustStockFunc func(ctx context.Context, id string, delta int) (*model.Book, error)
	count           int64
}

func (m *mockBookRepository) Create(ctx context.Context, book *model.Book) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, book)
	}
	book.ID = "507f1f77bcf86cd799439011"
	return nil
}

func (m *mockBookRepository) FindByID(ctx context.Context, id string) (*model.Book, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookserrors.ErrNotFound
}

func (m *mockBookRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Book, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockBookRepository) Count(ctx context.Context) (int64, error) {
	return m.count, nil
}

func (m *mockBookRepository) Search(ctx context.Context, query string, limit int, offset int64) ([]*model.Book, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, query, limit, offset)
	}
	return nil, nil
}

func (m *mockBookRepository) CountSearch(ctx context.Context, query string) (int64, error) {
	return m.count, nil
}

func (m *mockBookRepository) DecrementStock(ctx context.Context, id string) error { return nil }

func (m *mockBookRepository) IncrementStock(ctx context.Context, id string) error { return nil }

func (m *mockBookRepository) AdjustStock(ctx context.Context, id string, delta int) (*model.Book, error) {
	if m.adjustStockFunc != nil {
		return m.adjustStockFunc(ctx, id, delta)
	}
	return &model.Book{ID: id, Stock: delta}, nil
}

var (
	admin  = auth.Principal{UserID: "admin-1", Role: auth.RoleAdmin}
	member = auth.Principal{UserID: "user-1", Role: auth.RoleMember}
)

func newService(repo *mockBookRepository) BookService {
	log := logger.Discard()
	return NewBookService(repo, validator.NewBookValidator(log), &config.Config{Log: log})
}

func TestCreate_SanitizesAndStores(t *testing.T) {
	var stored *model.Book
	repo := &mockBookRepository{
		createFunc: func(ctx context.Context, book *model.Book) error {
			stored = book
			book.ID = "new-id"
			return nil
		},
	}

	book := &model.Book{
		Title:    "  Laskar   Pelangi ",
		Author:   "Andrea Hirata",
		ISBN:     "978-602-03-3295-6",
		Category: "Novel Remaja",
		Stock:    4,
	}
	require.NoError(t, newService(repo).Create(context.Background(), admin, book))

	require.NotNil(t, stored)
	assert.Equal(t, "Laskar Pelangi", stored.Title)
	assert.Equal(t, "9786020332956", stored.ISBN)
	assert.Equal(t, "novel_remaja", stored.Category)
	assert.False(t, stored.CreatedAt.IsZero())
	assert.Equal(t, "new-id", book.ID)
}

func TestCreate_RequiresAdmin(t *testing.T) {
	err := newService(&mockBookRepository{}).Create(context.Background(), member, &model.Book{Title: "x", Author: "y"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestCreate_ValidationError(t *testing.T) {
	err := newService(&mockBookRepository{}).Create(context.Background(), admin, &model.Book{Title: "   ", Author: "y"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestGetByID_Errors(t *testing.T) {
	repo := &mockBookRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Book, error) {
			switch id {
			case "bad":
				return nil, bookserrors.ErrInvalidID
			case "down":
				return nil, errors.New("connection refused")
			}
			return nil, bookserrors.ErrNotFound
		},
	}
	svc := newService(repo)

	_, err := svc.GetByID(context.Background(), "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
	_, err = svc.GetByID(context.Background(), "bad")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
	_, err = svc.GetByID(context.Background(), "down")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTransientStore))
	_, err = svc.GetByID(context.Background(), "507f1f77bcf86cd799439011")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestList_UsesSearchWhenQueryGiven(t *testing.T) {
	searched := false
	repo := &mockBookRepository{
		count: 1,
		searchFunc: func(ctx context.Context, query string, limit int, offset int64) ([]*model.Book, error) {
			searched = true
			assert.Equal(t, "tere liye", query)
			return []*model.Book{{Title: "Hujan"}}, nil
		},
		findAllFunc: func(ctx context.Context, limit int, offset int64) ([]*model.Book, error) {
			t.Error("FindAll should not be called for a search")
			return nil, nil
		},
	}

	books, total, err := newService(repo).List(context.Background(), "  tere   liye ", 10, 0)
	require.NoError(t, err)
	assert.True(t, searched)
	assert.Equal(t, int64(1), total)
	assert.Len(t, books, 1)
}

func TestList_EmptyCatalog(t *testing.T) {
	repo := &mockBookRepository{
		findAllFunc: func(ctx context.Context, limit int, offset int64) ([]*model.Book, error) {
			assert.Equal(t, 10, limit)
			return nil, nil
		},
	}

	books, total, err := newService(repo).List(context.Background(), "", 0, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestAdjustStock(t *testing.T) {
	t.Run("underflow is a conflict", func(t *testing.T) {
		repo := &mockBookRepository{
			adjustStockFunc: func(ctx context.Context, id string, delta int) (*model.Book, error) {
				return nil, bookserrors.ErrStockUnderflow
			},
		}
		_, err := newService(repo).AdjustStock(context.Background(), admin, "id", &model.StockAdjustment{Delta: -5})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	})

	t.Run("zero delta rejected", func(t *testing.T) {
		_, err := newService(&mockBookRepository{}).AdjustStock(context.Background(), admin, "id", &model.StockAdjustment{})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	})

	t.Run("members cannot adjust", func(t *testing.T) {
		_, err := newService(&mockBookRepository{}).AdjustStock(context.Background(), member, "id", &model.StockAdjustment{Delta: 1})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	})

	t.Run("applies delta", func(t *testing.T) {
		book, err := newService(&mockBookRepository{}).AdjustStock(context.Background(), admin, "id", &model.StockAdjustment{Delta: 2})
		require.NoError(t, err)
		assert.Equal(t, 2, book.Stock)
	})
}
