package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/esports-arena/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var ErrTeamNotFound = errors.New("team not found")

type TeamRepository interface {
	// ListRegistered возвращает команды турнира в порядке регистрации.
	ListRegistered(ctx context.Context, tournamentID int) ([]*models.Team, error)
	// GetByIDs загружает команды вместе с составами.
	GetByIDs(ctx context.Context, ids []int) (map[int]*models.Team, error)
}

type postgresTeamRepository struct {
	db *sqlx.DB
}

func NewPostgresTeamRepository(db *sqlx.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) ListRegistered(ctx context.Context, tournamentID int) ([]*models.Team, error) {
	var teams []*models.Team
	err := r.db.SelectContext(ctx, &teams, `
		SELECT t.id, t.name, t.captain_id, t.created_at
		FROM tournament_teams tt
		JOIN teams t ON t.id = tt.team_id
		WHERE tt.tournament_id = $1
		ORDER BY tt.registered_at, tt.team_id`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registered teams for tournament %d: %w", tournamentID, err)
	}
	return teams, nil
}

func (r *postgresTeamRepository) GetByIDs(ctx context.Context, ids []int) (map[int]*models.Team, error) {
	result := make(map[int]*models.Team, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var teams []*models.Team
	err := r.db.SelectContext(ctx, &teams,
		`SELECT id, name, captain_id, created_at FROM teams WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}
	for _, t := range teams {
		result[t.ID] = t
	}

	var members []models.Player
	err = r.db.SelectContext(ctx, &members, `
		SELECT tm.user_id, tm.team_id, u.nickname, tm.presence
		FROM team_members tm
		JOIN users u ON u.id = tm.user_id
		WHERE tm.team_id = ANY($1)
		ORDER BY tm.team_id, u.nickname`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load team rosters: %w", err)
	}
	for _, p := range members {
		if t, ok := result[p.TeamID]; ok {
			t.Members = append(t.Members, p)
		}
	}
	return result, nil
}
