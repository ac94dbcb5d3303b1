package service

import (
	"context"
	"testing"

	memberserrors "pustaka/internal/members/errors"
	"pustaka/internal/members/validator"
	"pustaka/pkg/auth"
	"pustaka/pkg/config"
	apperrors "pustaka/pkg/errors"
	"pustaka/pkg/logger"
	"pustaka/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMemberRepository struct {
	createFunc       func(ctx context.Context, member *model.Member) error
	findByUserIDFunc func(ctx context.Context, userID string) (*model.Member, error)
	reviewFunc       func(ctx context.Context, id string, status model.MemberStatus, reason, reviewer string) (*model.Member, error)
}

func (m *mockMemberRepository) Create(ctx context.Context, member *model.Member) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, member)
	}
	member.ID = "m1"
	return nil
}

func (m *mockMemberRepository) FindByID(ctx context.Context, id string) (*model.Member, error) {
	return nil, memberserrors.ErrNotFound
}

func (m *mockMemberRepository) FindByUserID(ctx context.Context, userID string) (*model.Member, error) {
	if m.findByUserIDFunc != nil {
		return m.findByUserIDFunc(ctx, userID)
	}
	return nil, memberserrors.ErrNotFound
}

func (m *mockMemberRepository) FindAll(ctx context.Context, status model.MemberStatus, limit int, offset int64) ([]*model.Member, error) {
	return nil, nil
}

func (m *mockMemberRepository) Count(ctx context.Context, status model.MemberStatus) (int64, error) {
	return 0, nil
}

func (m *mockMemberRepository) Review(ctx context.Context, id string, status model.MemberStatus, reason, reviewer string) (*model.Member, error) {
	if m.reviewFunc != nil {
		return m.reviewFunc(ctx, id, status, reason, reviewer)
	}
	return &model.Member{ID: id, Status: status, RejectionReason: reason, ReviewedBy: reviewer}, nil
}

var (
	admin  = auth.Principal{UserID: "admin-1", Role: auth.RoleAdmin}
	member = auth.Principal{UserID: "user-1", Role: auth.RoleMember}
)

func newService(repo *mockMemberRepository) MemberService {
	log := logger.Discard()
	return NewMemberService(repo, validator.NewMemberValidator(log), &config.Config{Log: log})
}

func registration() *model.Member {
	return &model.Member{
		Name:        "  Budi   Santoso ",
		Email:       " Budi@Example.COM ",
		Phone:       "0812-3456-7890",
		KTPNumber:   "3171-2345-0790-0001",
		KTPImageURL: "http://storage.example.com/ktp/Budi.jpg",
		Status:      model.MemberStatusVerified,
	}
}

func TestRegister_NormalizesAndStartsPending(t *testing.T) {
	var stored *model.Member
	repo := &mockMemberRepository{
		createFunc: func(ctx context.Context, m *model.Member) error {
			stored = m
			return nil
		},
	}

	require.NoError(t, newService(repo).Register(context.Background(), member, registration()))
	require.NotNil(t, stored)
	assert.Equal(t, "user-1", stored.UserID)
	assert.Equal(t, model.MemberStatusPending, stored.Status, "self-registration cannot skip verification")
	assert.Equal(t, "Budi Santoso", stored.Name)
	assert.Equal(t, "budi@example.com", stored.Email)
	assert.Equal(t, "+6281234567890", stored.Phone)
	assert.Equal(t, "3171234507900001", stored.KTPNumber)
	assert.Equal(t, "https://storage.example.com/ktp/Budi.jpg", stored.KTPImageURL)
}

func TestRegister_Duplicates(t *testing.T) {
	for _, repoErr := range []error{memberserrors.ErrAlreadyRegistered, memberserrors.ErrDuplicateKTP} {
		repo := &mockMemberRepository{
			createFunc: func(ctx context.Context, m *model.Member) error { return repoErr },
		}
		err := newService(repo).Register(context.Background(), member, registration())
		assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict), "expected conflict for %v", repoErr)
	}
}

func TestRegister_InvalidPhone(t *testing.T) {
	m := registration()
	m.Phone = "12"

	err := newService(&mockMemberRepository{}).Register(context.Background(), member, m)
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	assert.Contains(t, apperrors.AsAppError(err).Details["error"], "phone")
}

func TestGetMine(t *testing.T) {
	repo := &mockMemberRepository{
		findByUserIDFunc: func(ctx context.Context, userID string) (*model.Member, error) {
			return &model.Member{UserID: userID, Status: model.MemberStatusPending}, nil
		},
	}

	m, err := newService(repo).GetMine(context.Background(), member)
	require.NoError(t, err)
	assert.Equal(t, "user-1", m.UserID)

	_, err = newService(&mockMemberRepository{}).GetMine(context.Background(), member)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestReview(t *testing.T) {
	t.Run("approve", func(t *testing.T) {
		m, err := newService(&mockMemberRepository{}).Review(context.Background(), admin, "m1", &model.VerificationDecision{Approve: true})
		require.NoError(t, err)
		assert.Equal(t, model.MemberStatusVerified, m.Status)
		assert.Equal(t, "admin-1", m.ReviewedBy)
	})

	t.Run("reject needs reason", func(t *testing.T) {
		_, err := newService(&mockMemberRepository{}).Review(context.Background(), admin, "m1", &model.VerificationDecision{Reason: "  "})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	})

	t.Run("reject", func(t *testing.T) {
		m, err := newService(&mockMemberRepository{}).Review(context.Background(), admin, "m1", &model.VerificationDecision{Reason: "KTP photo unreadable"})
		require.NoError(t, err)
		assert.Equal(t, model.MemberStatusRejected, m.Status)
		assert.Equal(t, "KTP photo unreadable", m.RejectionReason)
	})

	t.Run("already reviewed", func(t *testing.T) {
		repo := &mockMemberRepository{
			reviewFunc: func(ctx context.Context, id string, status model.MemberStatus, reason, reviewer string) (*model.Member, error) {
				return nil, memberserrors.ErrAlreadyReviewed
			},
		}
		_, err := newService(repo).Review(context.Background(), admin, "m1", &model.VerificationDecision{Approve: true})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	})

	t.Run("members cannot review", func(t *testing.T) {
		_, err := newService(&mockMemberRepository{}).Review(context.Background(), member, "m1", &model.VerificationDecision{Approve: true})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	})
}

func TestList_InvalidStatus(t *testing.T) {
	_, _, err := newService(&mockMemberRepository{}).List(context.Background(), admin, "banned", 10, 0)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}
