package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/esports-arena/models"
	"github.com/jmoiron/sqlx"
)

var (
	ErrVetoNameTaken  = errors.New("map or hero already banned or picked in this match")
	ErrVetoOrderTaken = errors.New("veto step was recorded concurrently")
)

type VetoRepository interface {
	// Create назначает следующий порядковый номер в пределах матча.
	Create(ctx context.Context, v *models.VetoEntry) error
	ListByMatch(ctx context.Context, matchID int) ([]*models.VetoEntry, error)
}

type postgresVetoRepository struct {
	db *sqlx.DB
}

func NewPostgresVetoRepository(db *sqlx.DB) VetoRepository {
	return &postgresVetoRepository{db: db}
}

func (r *postgresVetoRepository) Create(ctx context.Context, v *models.VetoEntry) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO match_vetoes (match_id, team_id, name, kind, action_order, created_at)
		SELECT $1, $2, $3, $4, COALESCE(MAX(action_order), 0) + 1, $5
		FROM match_vetoes WHERE match_id = $1
		RETURNING id, action_order`,
		v.MatchID, v.TeamID, v.Name, v.Kind, v.CreatedAt,
	).Scan(&v.ID, &v.Order)
	if err != nil {
		if code, constraint := pqCode(err); code == codeUniqueViolation {
			if constraint == "match_vetoes_order_key" {
				return ErrVetoOrderTaken
			}
			return ErrVetoNameTaken
		}
		return fmt.Errorf("failed to insert veto step: %w", err)
	}
	return nil
}

func (r *postgresVetoRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.VetoEntry, error) {
	var out []*models.VetoEntry
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, match_id, team_id, name, kind, action_order, created_at
		FROM match_vetoes WHERE match_id = $1 ORDER BY action_order`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list veto for match %d: %w", matchID, err)
	}
	return out, nil
}
