package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/esports-arena/models"
	"github.com/Dosada05/esports-arena/repositories"
	"github.com/Dosada05/esports-arena/utils"
	"github.com/google/uuid"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// VerificationNotifier доставляет код подтверждения администратору.
type VerificationNotifier interface {
	SendVerificationCode(ctx context.Context, to string, action *models.PendingAction, code string) error
}

type ModerationConfig struct {
	CodeTTL     time.Duration
	MaxAttempts int
	BcryptCost  int
}

type ProposeActionInput struct {
	TargetUserID int
	Kind         models.ActionKind
	DurationDays *int
	Forever      bool
	Reason       string
	TournamentID *int
}

type ConfirmResult struct {
	Applied      bool                  `json:"applied"`
	Pending      *models.PendingAction `json:"pending"`
	Sanction     *models.Sanction      `json:"sanction,omitempty"`
	AttemptsLeft int                   `json:"attempts_left"`
}

type ModerationService interface {
	ProposeAction(ctx context.Context, adminID int, input ProposeActionInput) (*models.PendingAction, error)
	ConfirmAction(ctx context.Context, adminID int, pendingID uuid.UUID, code string) (*ConfirmResult, error)
	ListSanctions(ctx context.Context, filter repositories.SanctionFilter) ([]*models.Sanction, error)
	LiftSanction(ctx context.Context, adminID int, sanctionID int, reason string) error
	AuditLog(ctx context.Context, limit int) ([]*models.AuditEntry, error)
	IsRestricted(ctx context.Context, userID int, kinds ...models.ActionKind) (bool, error)
	ExpireStale(ctx context.Context) (int64, error)
}

type moderationService struct {
	moderationRepo repositories.ModerationRepository
	userRepo       repositories.UserRepository
	tournamentRepo repositories.TournamentRepository
	notifier       VerificationNotifier
	cfg            ModerationConfig
	locks          *KeyedLocker
	logger         *slog.Logger
	now            func() time.Time
}

func NewModerationService(
	moderationRepo repositories.ModerationRepository,
	userRepo repositories.UserRepository,
	tournamentRepo repositories.TournamentRepository,
	notifier VerificationNotifier,
	cfg ModerationConfig,
	locks *KeyedLocker,
	logger *slog.Logger,
) ModerationService {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = 10 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &moderationService{
		moderationRepo: moderationRepo,
		userRepo:       userRepo,
		tournamentRepo: tournamentRepo,
		notifier:       notifier,
		cfg:            cfg,
		locks:          locks,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *moderationService) requireModerator(ctx context.Context, adminID int) (*models.User, error) {
	admin, err := s.userRepo.GetByID(ctx, adminID)
	if err != nil {
		return nil, handleRepositoryError(err, "get admin")
	}
	if !admin.Role.CanModerate() {
		return nil, fmt.Errorf("%w: role %s cannot moderate", ErrForbiddenOperation, admin.Role)
	}
	return admin, nil
}

func (s *moderationService) validateProposal(ctx context.Context, adminID int, input *ProposeActionInput) error {
	if !input.Kind.Valid() {
		return fmt.Errorf("%w: unknown action kind %q", ErrValidation, input.Kind)
	}
	reason, err := requireReason(input.Reason)
	if err != nil {
		return err
	}
	input.Reason = reason

	hasDuration := input.DurationDays != nil
	if hasDuration == input.Forever {
		return fmt.Errorf("%w: exactly one of duration_days and forever must be set", ErrValidation)
	}
	if hasDuration && *input.DurationDays <= 0 {
		return fmt.Errorf("%w: duration_days must be positive", ErrValidation)
	}
	if input.TargetUserID == adminID {
		return fmt.Errorf("%w: cannot moderate yourself", ErrValidation)
	}

	if input.Kind == models.ActionSuspend {
		if input.TournamentID == nil {
			return fmt.Errorf("%w: suspend requires tournament_id", ErrValidation)
		}
		if _, err := s.tournamentRepo.GetByID(ctx, *input.TournamentID); err != nil {
			return handleRepositoryError(err, "get tournament")
		}
	} else {
		input.TournamentID = nil
	}

	target, err := s.userRepo.GetByID(ctx, input.TargetUserID)
	if err != nil {
		return handleRepositoryError(err, "get target user")
	}
	if target.Role == models.RoleFounder {
		return fmt.Errorf("%w: user %d", ErrTargetImmune, target.ID)
	}
	return nil
}

func (s *moderationService) ProposeAction(ctx context.Context, adminID int, input ProposeActionInput) (*models.PendingAction, error) {
	admin, err := s.requireModerator(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if err := s.validateProposal(ctx, adminID, &input); err != nil {
		return nil, err
	}

	code, err := utils.GenerateVerificationCode()
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashCode(code, s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash verification code: %w", err)
	}

	now := s.now()
	pending := &models.PendingAction{
		ID:           uuid.New(),
		AdminID:      adminID,
		TargetUserID: input.TargetUserID,
		Kind:         input.Kind,
		DurationDays: input.DurationDays,
		Reason:       input.Reason,
		TournamentID: input.TournamentID,
		CodeHash:     hash,
		Status:       models.PendingAwaiting,
		ExpiresAt:    now.Add(s.cfg.CodeTTL),
		CreatedAt:    now,
	}
	if err := s.moderationRepo.CreatePending(ctx, pending); err != nil {
		return nil, handleRepositoryError(err, "create pending action")
	}

	if err := s.notifier.SendVerificationCode(ctx, admin.Email, pending, code); err != nil {
		s.logger.ErrorContext(ctx, "failed to deliver verification code",
			slog.String("pending_id", pending.ID.String()), slog.Int("admin_id", adminID), slog.Any("error", err))
		s.resolve(pending, models.PendingExpired)
		if upErr := s.moderationRepo.UpdatePending(ctx, pending); upErr != nil {
			s.logger.ErrorContext(ctx, "failed to expire undelivered pending action",
				slog.String("pending_id", pending.ID.String()), slog.Any("error", upErr))
		}
		return nil, fmt.Errorf("%w: verification code could not be delivered", ErrUnavailable)
	}

	s.logger.InfoContext(ctx, "moderation action proposed",
		slog.String("pending_id", pending.ID.String()),
		slog.Int("admin_id", adminID),
		slog.Int("target_user_id", input.TargetUserID),
		slog.String("kind", string(input.Kind)),
	)
	return pending, nil
}

func (s *moderationService) ConfirmAction(ctx context.Context, adminID int, pendingID uuid.UUID, code string) (*ConfirmResult, error) {
	if !utils.IsVerificationCode(code) {
		return nil, fmt.Errorf("%w: code must be six digits", ErrValidation)
	}

	unlock, err := s.locks.Lock(ctx, "pending:"+pendingID.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	pending, err := s.moderationRepo.GetPending(ctx, pendingID)
	if err != nil {
		return nil, handleRepositoryError(err, "get pending action")
	}
	if pending.AdminID != adminID {
		return nil, fmt.Errorf("%w: pending action belongs to another admin", ErrForbiddenOperation)
	}

	switch pending.Status {
	case models.PendingExpired:
		return nil, ErrVerificationExpired
	case models.PendingApplied:
		return nil, fmt.Errorf("%w: pending action already applied", ErrInvalidTransition)
	}

	now := s.now()
	if !now.Before(pending.ExpiresAt) {
		s.resolve(pending, models.PendingExpired)
		if err := s.moderationRepo.UpdatePending(ctx, pending); err != nil {
			return nil, handleRepositoryError(err, "expire pending action")
		}
		return nil, ErrVerificationExpired
	}

	pending.Attempts++
	if !utils.CheckCodeHash(code, pending.CodeHash) {
		left := s.cfg.MaxAttempts - pending.Attempts
		if left <= 0 {
			left = 0
			s.resolve(pending, models.PendingExpired)
		}
		if err := s.moderationRepo.UpdatePending(ctx, pending); err != nil {
			return nil, handleRepositoryError(err, "record failed attempt")
		}
		s.logger.WarnContext(ctx, "verification code mismatch",
			slog.String("pending_id", pendingID.String()), slog.Int("attempts", pending.Attempts))
		return &ConfirmResult{Applied: false, Pending: pending, AttemptsLeft: left}, ErrVerificationMismatch
	}

	s.resolve(pending, models.PendingApplied)
	sanction := &models.Sanction{
		UserID:       pending.TargetUserID,
		Kind:         pending.Kind,
		Reason:       pending.Reason,
		IssuedBy:     adminID,
		TournamentID: pending.TournamentID,
		Active:       true,
		CreatedAt:    now,
	}
	if !pending.Forever() {
		sanction.ExpiresAt = timePtr(now.AddDate(0, 0, *pending.DurationDays))
	}
	audit := &models.AuditEntry{
		AdminID:      adminID,
		TargetUserID: pending.TargetUserID,
		Action:       string(pending.Kind),
		Reason:       pending.Reason,
		CreatedAt:    now,
	}
	if err := s.moderationRepo.ApplyPending(ctx, pending, sanction, audit); err != nil {
		return nil, handleRepositoryError(err, "apply pending action")
	}

	s.logger.InfoContext(ctx, "moderation action applied",
		slog.String("pending_id", pendingID.String()),
		slog.Int("sanction_id", sanction.ID),
		slog.Int("target_user_id", sanction.UserID),
		slog.String("kind", string(sanction.Kind)),
	)
	return &ConfirmResult{Applied: true, Pending: pending, Sanction: sanction, AttemptsLeft: 0}, nil
}

func (s *moderationService) resolve(p *models.PendingAction, status models.PendingStatus) {
	p.Status = status
	p.ResolvedAt = timePtr(s.now())
}

func (s *moderationService) ListSanctions(ctx context.Context, filter repositories.SanctionFilter) ([]*models.Sanction, error) {
	if filter.Kind != nil && !filter.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown action kind %q", ErrValidation, *filter.Kind)
	}
	sanctions, err := s.moderationRepo.ListSanctions(ctx, filter)
	if err != nil {
		return nil, handleRepositoryError(err, "list sanctions")
	}
	if sanctions == nil {
		return []*models.Sanction{}, nil
	}
	return sanctions, nil
}

func (s *moderationService) LiftSanction(ctx context.Context, adminID int, sanctionID int, reason string) error {
	if _, err := s.requireModerator(ctx, adminID); err != nil {
		return err
	}
	reason, err := requireReason(reason)
	if err != nil {
		return err
	}

	sanction, err := s.moderationRepo.GetSanction(ctx, sanctionID)
	if err != nil {
		return handleRepositoryError(err, "get sanction")
	}
	if !sanction.Active {
		return fmt.Errorf("%w: sanction %d is already lifted", ErrInvalidTransition, sanctionID)
	}

	audit := &models.AuditEntry{
		AdminID:      adminID,
		TargetUserID: sanction.UserID,
		Action:       "lift_" + string(sanction.Kind),
		Reason:       reason,
		CreatedAt:    s.now(),
	}
	if err := s.moderationRepo.LiftSanction(ctx, sanctionID, audit); err != nil {
		if errors.Is(err, repositories.ErrSanctionNotFound) {
			return fmt.Errorf("%w: sanction %d is already lifted", ErrInvalidTransition, sanctionID)
		}
		return handleRepositoryError(err, "lift sanction")
	}
	s.logger.InfoContext(ctx, "sanction lifted",
		slog.Int("sanction_id", sanctionID), slog.Int("admin_id", adminID))
	return nil
}

func (s *moderationService) AuditLog(ctx context.Context, limit int) ([]*models.AuditEntry, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	entries, err := s.moderationRepo.ListAudit(ctx, limit)
	if err != nil {
		return nil, handleRepositoryError(err, "list audit")
	}
	if entries == nil {
		return []*models.AuditEntry{}, nil
	}
	return entries, nil
}

func (s *moderationService) IsRestricted(ctx context.Context, userID int, kinds ...models.ActionKind) (bool, error) {
	sanctions, err := s.moderationRepo.ListSanctions(ctx, repositories.SanctionFilter{UserID: &userID, ActiveOnly: true})
	if err != nil {
		return false, handleRepositoryError(err, "list active sanctions")
	}
	now := s.now()
	for _, sanction := range sanctions {
		if !sanction.EffectiveAt(now) {
			continue
		}
		for _, k := range kinds {
			if sanction.Kind == k {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *moderationService) ExpireStale(ctx context.Context) (int64, error) {
	n, err := s.moderationRepo.ExpireStale(ctx, s.now())
	if err != nil {
		return 0, handleRepositoryError(err, "expire stale pending actions")
	}
	return n, nil
}
