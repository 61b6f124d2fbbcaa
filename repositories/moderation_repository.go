package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/esports-arena/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrPendingNotFound    = errors.New("pending action not found")
	ErrPendingNotAwaiting = errors.New("pending action is no longer awaiting confirmation")
	ErrSanctionNotFound   = errors.New("sanction not found")
)

type SanctionFilter struct {
	UserID     *int
	Kind       *models.ActionKind
	ActiveOnly bool
	Limit      int
}

type ModerationRepository interface {
	// CreatePending истекает все ожидающие действия админа и сохраняет новое.
	CreatePending(ctx context.Context, p *models.PendingAction) error
	GetPending(ctx context.Context, id uuid.UUID) (*models.PendingAction, error)
	UpdatePending(ctx context.Context, p *models.PendingAction) error
	// ExpireStale переводит просроченные ожидающие действия в expired.
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
	// ApplyPending в одной транзакции: pending -> applied, санкция, запись журнала.
	ApplyPending(ctx context.Context, p *models.PendingAction, sanction *models.Sanction, audit *models.AuditEntry) error

	GetSanction(ctx context.Context, id int) (*models.Sanction, error)
	ListSanctions(ctx context.Context, filter SanctionFilter) ([]*models.Sanction, error)
	LiftSanction(ctx context.Context, id int, audit *models.AuditEntry) error

	ListAudit(ctx context.Context, limit int) ([]*models.AuditEntry, error)
}

type postgresModerationRepository struct {
	db *sqlx.DB
}

func NewPostgresModerationRepository(db *sqlx.DB) ModerationRepository {
	return &postgresModerationRepository{db: db}
}

const pendingColumns = `id, admin_id, target_user_id, kind, duration_days, reason, tournament_id,
	code_hash, status, attempts, expires_at, created_at, resolved_at`

const sanctionColumns = `id, user_id, kind, reason, issued_by, tournament_id, expires_at, active, created_at`

func (r *postgresModerationRepository) CreatePending(ctx context.Context, p *models.PendingAction) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE pending_actions SET status = $1, resolved_at = $2
			WHERE admin_id = $3 AND status = $4`,
			models.PendingExpired, p.CreatedAt, p.AdminID, models.PendingAwaiting)
		if err != nil {
			return fmt.Errorf("failed to expire previous pending actions of admin %d: %w", p.AdminID, err)
		}

		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO pending_actions (`+pendingColumns+`)
			VALUES (:id, :admin_id, :target_user_id, :kind, :duration_days, :reason, :tournament_id,
				:code_hash, :status, :attempts, :expires_at, :created_at, :resolved_at)`, p)
		if err != nil {
			return fmt.Errorf("failed to insert pending action: %w", err)
		}
		return nil
	})
}

func (r *postgresModerationRepository) GetPending(ctx context.Context, id uuid.UUID) (*models.PendingAction, error) {
	p := &models.PendingAction{}
	if err := r.db.GetContext(ctx, p, `SELECT `+pendingColumns+` FROM pending_actions WHERE id = $1`, id); err != nil {
		return nil, notFoundOr(err, ErrPendingNotFound)
	}
	return p, nil
}

func (r *postgresModerationRepository) UpdatePending(ctx context.Context, p *models.PendingAction) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE pending_actions SET status = :status, attempts = :attempts, resolved_at = :resolved_at
		WHERE id = :id`, p)
	if err != nil {
		return fmt.Errorf("failed to update pending action %s: %w", p.ID, err)
	}
	return checkAffectedRows(res, ErrPendingNotFound)
}

func (r *postgresModerationRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pending_actions SET status = $1, resolved_at = $2
		WHERE status = $3 AND expires_at <= $2`,
		models.PendingExpired, now, models.PendingAwaiting)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale pending actions: %w", err)
	}
	return res.RowsAffected()
}

func (r *postgresModerationRepository) ApplyPending(ctx context.Context, p *models.PendingAction, sanction *models.Sanction, audit *models.AuditEntry) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE pending_actions SET status = $1, attempts = $2, resolved_at = $3
			WHERE id = $4 AND status = $5`,
			models.PendingApplied, p.Attempts, p.ResolvedAt, p.ID, models.PendingAwaiting)
		if err != nil {
			return fmt.Errorf("failed to mark pending action %s applied: %w", p.ID, err)
		}
		if err := checkAffectedRows(res, ErrPendingNotAwaiting); err != nil {
			return err
		}

		err = tx.QueryRowxContext(ctx, `
			INSERT INTO sanctions (user_id, kind, reason, issued_by, tournament_id, expires_at, active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			sanction.UserID, sanction.Kind, sanction.Reason, sanction.IssuedBy,
			sanction.TournamentID, sanction.ExpiresAt, sanction.Active, sanction.CreatedAt,
		).Scan(&sanction.ID)
		if err != nil {
			return fmt.Errorf("failed to insert sanction: %w", err)
		}

		return insertAudit(ctx, tx, audit)
	})
}

func (r *postgresModerationRepository) GetSanction(ctx context.Context, id int) (*models.Sanction, error) {
	s := &models.Sanction{}
	if err := r.db.GetContext(ctx, s, `SELECT `+sanctionColumns+` FROM sanctions WHERE id = $1`, id); err != nil {
		return nil, notFoundOr(err, ErrSanctionNotFound)
	}
	return s, nil
}

func (r *postgresModerationRepository) ListSanctions(ctx context.Context, filter SanctionFilter) ([]*models.Sanction, error) {
	query := `SELECT ` + sanctionColumns + ` FROM sanctions WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.UserID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argID)
		args = append(args, *filter.UserID)
		argID++
	}
	if filter.Kind != nil {
		query += fmt.Sprintf(" AND kind = $%d", argID)
		args = append(args, *filter.Kind)
		argID++
	}
	if filter.ActiveOnly {
		query += fmt.Sprintf(" AND active AND (expires_at IS NULL OR expires_at > $%d)", argID)
		args = append(args, time.Now().UTC())
		argID++
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
	}

	var out []*models.Sanction
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list sanctions: %w", err)
	}
	return out, nil
}

func (r *postgresModerationRepository) LiftSanction(ctx context.Context, id int, audit *models.AuditEntry) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE sanctions SET active = FALSE WHERE id = $1 AND active`, id)
		if err != nil {
			return fmt.Errorf("failed to lift sanction %d: %w", id, err)
		}
		if err := checkAffectedRows(res, ErrSanctionNotFound); err != nil {
			return err
		}
		return insertAudit(ctx, tx, audit)
	})
}

func (r *postgresModerationRepository) ListAudit(ctx context.Context, limit int) ([]*models.AuditEntry, error) {
	var out []*models.AuditEntry
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, admin_id, target_user_id, action, reason, created_at
		FROM moderation_audit ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list moderation audit: %w", err)
	}
	return out, nil
}

func insertAudit(ctx context.Context, exec SQLExecutor, audit *models.AuditEntry) error {
	err := exec.QueryRowxContext(ctx, `
		INSERT INTO moderation_audit (admin_id, target_user_id, action, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		audit.AdminID, audit.TargetUserID, audit.Action, audit.Reason, audit.CreatedAt,
	).Scan(&audit.ID)
	if err != nil {
		return fmt.Errorf("failed to append moderation audit: %w", err)
	}
	return nil
}
