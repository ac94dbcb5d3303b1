package service

import (
	"context"
	"errors"
	"time"

	bookserrors "pustaka/internal/books/errors"
	"pustaka/internal/books/repository"
	"pustaka/internal/books/validator"
	"pustaka/pkg/auth"
	"pustaka/pkg/config"
	apperrors "pustaka/pkg/errors"
	"pustaka/pkg/model"
	"pustaka/pkg/sanitizer"

	"golang.org/x/sync/errgroup"
)

type BookService interface {
	Create(ctx context.Context, caller auth.Principal, book *model.Book) error
	GetByID(ctx context.Context, id string) (*model.Book, error)
	List(ctx context.Context, query string, limit int, offset int64) ([]*model.Book, int64, error)
	AdjustStock(ctx context.Context, caller auth.Principal, id string, adj *model.StockAdjustment) (*model.Book, error)
}

type bookService struct {
	repo      repository.BookRepository
	validator *validator.BookValidator
	cfg       *config.Config
}

func NewBookService(repo repository.BookRepository, validator *validator.BookValidator, cfg *config.Config) BookService {
	return &bookService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *bookService) Create(ctx context.Context, caller auth.Principal, book *model.Book) error {
	if !caller.IsAdmin() {
		return apperrors.Forbidden("Administrator role required")
	}

	sanitize(book)
	if err := s.validator.Validate(book); err != nil {
		s.cfg.Log.Warn("Book validation failed", "title", book.Title, "error", err)
		return apperrors.Validation("Invalid book data", map[string]any{"error": err.Error()})
	}

	book.ID = ""
	book.CreatedAt = time.Now().UTC()
	if err := s.repo.Create(ctx, book); err != nil {
		s.cfg.Log.Error("Failed to create book", "title", book.Title, "error", err)
		return apperrors.TransientStore("Failed to create book", err)
	}

	s.cfg.Log.Info("Book created", "book_id", book.ID, "title", book.Title, "stock", book.Stock, "actor", caller.UserID)
	return nil
}

func (s *bookService) GetByID(ctx context.Context, id string) (*model.Book, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Book ID cannot be empty")
	}

	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapBookError(err, id)
	}
	return book, nil
}

// List returns the catalog page. A non-empty query filters on title or author.
func (s *bookService) List(ctx context.Context, query string, limit int, offset int64) ([]*model.Book, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)
	query = sanitizer.SanitizeText(query)

	var books []*model.Book
	var total int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if query == "" {
			total, err = s.repo.Count(gctx)
		} else {
			total, err = s.repo.CountSearch(gctx, query)
		}
		return err
	})
	g.Go(func() error {
		var err error
		if query == "" {
			books, err = s.repo.FindAll(gctx, limit, offset)
		} else {
			books, err = s.repo.Search(gctx, query, limit, offset)
		}
		return err
	})

	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to list books", "query", query, "error", err)
		return nil, 0, apperrors.TransientStore("Failed to retrieve books", err)
	}
	if books == nil {
		books = []*model.Book{}
	}
	return books, total, nil
}

func (s *bookService) AdjustStock(ctx context.Context, caller auth.Principal, id string, adj *model.StockAdjustment) (*model.Book, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Forbidden("Administrator role required")
	}
	if err := s.validator.ValidateStockAdjustment(adj); err != nil {
		return nil, apperrors.Validation("Invalid stock adjustment", map[string]any{"error": err.Error()})
	}

	book, err := s.repo.AdjustStock(ctx, id, adj.Delta)
	if err != nil {
		if errors.Is(err, bookserrors.ErrStockUnderflow) {
			return nil, apperrors.Conflict("Stock cannot drop below zero; copies are still on loan")
		}
		return nil, mapBookError(err, id)
	}

	s.cfg.Log.Info("Book stock adjusted", "book_id", id, "delta", adj.Delta, "stock", book.Stock, "actor", caller.UserID)
	return book, nil
}

func sanitize(book *model.Book) {
	book.Title = sanitizer.SanitizeText(book.Title)
	book.Author = sanitizer.SanitizeText(book.Author)
	book.ISBN = sanitizer.SanitizeISBN(book.ISBN)
	book.Category = sanitizer.SanitizeCategory(book.Category)
	book.CoverURL = sanitizer.SanitizeURL(book.CoverURL)
}

func mapBookError(err error, id string) error {
	switch {
	case errors.Is(err, bookserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Book", id)
	case errors.Is(err, bookserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid book ID format")
	default:
		return apperrors.TransientStore("Failed to retrieve book", err)
	}
}
