package service

import (
	"context"
	"errors"

	memberserrors "pustaka/internal/members/errors"
	"pustaka/internal/members/repository"
	"pustaka/internal/members/validator"
	"pustaka/pkg/auth"
	"pustaka/pkg/config"
	apperrors "pustaka/pkg/errors"
	"pustaka/pkg/model"
	"pustaka/pkg/sanitizer"

	"golang.org/x/sync/errgroup"
)

type MemberService interface {
	Register(ctx context.Context, caller auth.Principal, member *model.Member) error
	GetMine(ctx context.Context, caller auth.Principal) (*model.Member, error)
	GetByID(ctx context.Context, caller auth.Principal, id string) (*model.Member, error)
	List(ctx context.Context, caller auth.Principal, status model.MemberStatus, limit int, offset int64) ([]*model.Member, int64, error)
	Review(ctx context.Context, caller auth.Principal, id string, decision *model.VerificationDecision) (*model.Member, error)
}

type memberService struct {
	repo      repository.MemberRepository
	validator *validator.MemberValidator
	cfg       *config.Config
}

func NewMemberService(repo repository.MemberRepository, validator *validator.MemberValidator, cfg *config.Config) MemberService {
	return &memberService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

// Register creates the caller's membership in the pending state. Borrowing
// stays closed until an administrator verifies the KTP.
func (s *memberService) Register(ctx context.Context, caller auth.Principal, member *model.Member) error {
	if caller.UserID == "" {
		return apperrors.Unauthorized("Authentication required")
	}

	sanitize(member)
	member.ID = ""
	member.UserID = caller.UserID
	member.Status = model.MemberStatusPending
	member.RejectionReason = ""
	member.ReviewedBy = ""
	member.ReviewedAt = nil

	if err := s.validator.Validate(member); err != nil {
		s.cfg.Log.Warn("Member validation failed", "user_id", caller.UserID, "error", err)
		return apperrors.Validation("Invalid registration", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, member); err != nil {
		switch {
		case errors.Is(err, memberserrors.ErrAlreadyRegistered):
			return apperrors.Conflict("You are already registered as a member")
		case errors.Is(err, memberserrors.ErrDuplicateKTP):
			return apperrors.Conflict("This KTP number is already registered")
		}
		s.cfg.Log.Error("Failed to create member", "user_id", caller.UserID, "error", err)
		return apperrors.TransientStore("Failed to register member", err)
	}

	s.cfg.Log.Info("Member registered", "member_id", member.ID, "user_id", member.UserID)
	return nil
}

func (s *memberService) GetMine(ctx context.Context, caller auth.Principal) (*model.Member, error) {
	if caller.UserID == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	member, err := s.repo.FindByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, mapMemberError(err, caller.UserID)
	}
	return member, nil
}

func (s *memberService) GetByID(ctx context.Context, caller auth.Principal, id string) (*model.Member, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Forbidden("Administrator role required")
	}
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapMemberError(err, id)
	}
	return member, nil
}

func (s *memberService) List(ctx context.Context, caller auth.Principal, status model.MemberStatus, limit int, offset int64) ([]*model.Member, int64, error) {
	if !caller.IsAdmin() {
		return nil, 0, apperrors.Forbidden("Administrator role required")
	}
	switch status {
	case "", model.MemberStatusPending, model.MemberStatusVerified, model.MemberStatusRejected:
	default:
		return nil, 0, apperrors.InvalidInput("status must be one of: pending, verified, rejected")
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var members []*model.Member
	var total int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, status)
		return err
	})
	g.Go(func() error {
		var err error
		members, err = s.repo.FindAll(gctx, status, limit, offset)
		return err
	})
	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to list members", "status", status, "error", err)
		return nil, 0, apperrors.TransientStore("Failed to retrieve members", err)
	}
	if members == nil {
		members = []*model.Member{}
	}
	return members, total, nil
}

func (s *memberService) Review(ctx context.Context, caller auth.Principal, id string, decision *model.VerificationDecision) (*model.Member, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Forbidden("Administrator role required")
	}
	decision.Reason = sanitizer.SanitizeText(decision.Reason)
	if err := s.validator.ValidateDecision(decision); err != nil {
		return nil, apperrors.Validation("Invalid verification decision", map[string]any{"error": err.Error()})
	}

	status := model.MemberStatusVerified
	reason := ""
	if !decision.Approve {
		status = model.MemberStatusRejected
		reason = decision.Reason
	}

	member, err := s.repo.Review(ctx, id, status, reason, caller.UserID)
	if err != nil {
		if errors.Is(err, memberserrors.ErrAlreadyReviewed) {
			return nil, apperrors.Conflict("Member has already been reviewed")
		}
		return nil, mapMemberError(err, id)
	}

	s.cfg.Log.Info("Member reviewed",
		"member_id", id,
		"user_id", member.UserID,
		"status", status,
		"reviewer", caller.UserID,
	)
	return member, nil
}

func sanitize(member *model.Member) {
	member.Name = sanitizer.SanitizeText(member.Name)
	member.Email = sanitizer.SanitizeEmail(member.Email)
	member.KTPNumber = sanitizer.SanitizeKTP(member.KTPNumber)
	member.KTPImageURL = sanitizer.SanitizeURL(member.KTPImageURL)
	// Leave an unparseable phone as typed so the validator names the field.
	if phone := sanitizer.SanitizePhone(member.Phone); phone != "" {
		member.Phone = phone
	}
}

func mapMemberError(err error, id string) error {
	switch {
	case errors.Is(err, memberserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Member", id)
	case errors.Is(err, memberserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid member ID format")
	default:
		return apperrors.TransientStore("Failed to retrieve member", err)
	}
}
