package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/esports-arena/models"
	"github.com/jmoiron/sqlx"
)

var (
	ErrMatchNotFound       = errors.New("match not found")
	ErrMatchInvalidReferee = errors.New("referee does not exist")
)

type MatchRepository interface {
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
	Update(ctx context.Context, match *models.Match) error
	// SaveResults сохраняет все изменённые матчи одной транзакцией.
	// championID != nil дополнительно завершает турнир.
	SaveResults(ctx context.Context, tournamentID int, matches []*models.Match, championID *int) error
}

type postgresMatchRepository struct {
	db *sqlx.DB
}

func NewPostgresMatchRepository(db *sqlx.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `
	id, tournament_id, round, slot, team1_id, team2_id, team1_bye, team2_bye,
	score1, score2, status, winner_id, walkover, referee_id, scheduled_at, map_name,
	started_at, completed_at, dispute_reason, nullify_reason, updated_at`

const updateMatchQuery = `
	UPDATE matches SET
		team1_id = :team1_id, team2_id = :team2_id, team1_bye = :team1_bye, team2_bye = :team2_bye,
		score1 = :score1, score2 = :score2, status = :status, winner_id = :winner_id,
		walkover = :walkover, referee_id = :referee_id, scheduled_at = :scheduled_at,
		map_name = :map_name, started_at = :started_at, completed_at = :completed_at,
		dispute_reason = :dispute_reason, nullify_reason = :nullify_reason, updated_at = :updated_at
	WHERE id = :id`

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m := &models.Match{}
	if err := r.db.GetContext(ctx, m, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id); err != nil {
		return nil, notFoundOr(err, ErrMatchNotFound)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	var matches []*models.Match
	err := r.db.SelectContext(ctx, &matches,
		`SELECT `+matchColumns+` FROM matches WHERE tournament_id = $1 ORDER BY round, slot`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, match *models.Match) error {
	return r.update(ctx, r.db, match)
}

func (r *postgresMatchRepository) update(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	res, err := exec.NamedExecContext(ctx, updateMatchQuery, match)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(res, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SaveResults(ctx context.Context, tournamentID int, matches []*models.Match, championID *int) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, m := range matches {
			if m.TournamentID != tournamentID {
				return fmt.Errorf("match %d does not belong to tournament %d", m.ID, tournamentID)
			}
			if err := r.update(ctx, tx, m); err != nil {
				return fmt.Errorf("failed to save match %d: %w", m.ID, err)
			}
		}
		if championID == nil {
			return nil
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE tournaments SET champion_team_id = $1, status = $2 WHERE id = $3`,
			*championID, models.StatusCompleted, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to record champion for tournament %d: %w", tournamentID, err)
		}
		return checkAffectedRows(res, ErrTournamentNotFound)
	})
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	code, constraint := pqCode(err)
	if code == codeForeignKeyViolation && constraint == "matches_referee_id_fkey" {
		return ErrMatchInvalidReferee
	}
	return err
}
