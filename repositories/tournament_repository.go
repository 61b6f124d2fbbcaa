package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/esports-arena/models"
	"github.com/jmoiron/sqlx"
)

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrBracketExists      = errors.New("bracket already generated for tournament")
	ErrMatchAddressTaken  = errors.New("match address already taken")
)

type TournamentRepository interface {
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	// SaveBracket атомарно фиксирует топологию: вставляет все матчи,
	// закрывает регистрацию и переводит турнир в active. Матчам проставляются ID.
	SaveBracket(ctx context.Context, tournamentID int, roundCount int, matches []*models.Match) error
}

type postgresTournamentRepository struct {
	db *sqlx.DB
}

func NewPostgresTournamentRepository(db *sqlx.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `id, name, team_capacity, registration_open, status, round_count, bracket_style, champion_team_id, created_at`

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := r.db.GetContext(ctx, t, `SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return nil, notFoundOr(err, ErrTournamentNotFound)
	}
	return t, nil
}

func (r *postgresTournamentRepository) SaveBracket(ctx context.Context, tournamentID int, roundCount int, matches []*models.Match) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// round_count = 0 служит защитой от повторной генерации
		res, err := tx.ExecContext(ctx, `
			UPDATE tournaments
			SET round_count = $1, status = $2, registration_open = FALSE
			WHERE id = $3 AND round_count = 0`,
			roundCount, models.StatusActive, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to lock tournament %d for bracket: %w", tournamentID, err)
		}
		if err := checkAffectedRows(res, ErrBracketExists); err != nil {
			return err
		}

		for _, m := range matches {
			err := tx.QueryRowxContext(ctx, `
				INSERT INTO matches (
					tournament_id, round, slot, team1_id, team2_id, team1_bye, team2_bye,
					score1, score2, status, winner_id, walkover, completed_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
				RETURNING id`,
				m.TournamentID, m.Round, m.Slot, m.Team1ID, m.Team2ID, m.Team1Bye, m.Team2Bye,
				m.Score1, m.Score2, m.Status, m.WinnerID, m.Walkover, m.CompletedAt, m.UpdatedAt,
			).Scan(&m.ID)
			if err != nil {
				if code, _ := pqCode(err); code == codeUniqueViolation {
					return fmt.Errorf("%w: (%d,%d)", ErrMatchAddressTaken, m.Round, m.Slot)
				}
				return fmt.Errorf("failed to insert match (%d,%d): %w", m.Round, m.Slot, err)
			}
		}
		return nil
	})
}
