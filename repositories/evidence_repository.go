package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/esports-arena/models"
	"github.com/jmoiron/sqlx"
)

var ErrScreenshotInvalidRef = errors.New("screenshot references unknown match or team")

type ScreenshotRepository interface {
	Create(ctx context.Context, s *models.Screenshot) error
	ListByMatch(ctx context.Context, matchID int) ([]*models.Screenshot, error)
}

type ChatRepository interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	ListByMatch(ctx context.Context, matchID int) ([]*models.ChatMessage, error)
}

type postgresScreenshotRepository struct {
	db *sqlx.DB
}

func NewPostgresScreenshotRepository(db *sqlx.DB) ScreenshotRepository {
	return &postgresScreenshotRepository{db: db}
}

func (r *postgresScreenshotRepository) Create(ctx context.Context, s *models.Screenshot) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO screenshots (match_id, team_id, url, description, uploaded_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		s.MatchID, s.TeamID, s.URL, s.Description, s.UploadedAt,
	).Scan(&s.ID)
	if err != nil {
		if code, _ := pqCode(err); code == codeForeignKeyViolation {
			return ErrScreenshotInvalidRef
		}
		return fmt.Errorf("failed to insert screenshot: %w", err)
	}
	return nil
}

func (r *postgresScreenshotRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.Screenshot, error) {
	var out []*models.Screenshot
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, match_id, team_id, url, description, uploaded_at
		FROM screenshots WHERE match_id = $1 ORDER BY uploaded_at, id`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list screenshots for match %d: %w", matchID, err)
	}
	return out, nil
}

type postgresChatRepository struct {
	db *sqlx.DB
}

func NewPostgresChatRepository(db *sqlx.DB) ChatRepository {
	return &postgresChatRepository{db: db}
}

func (r *postgresChatRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO chat_messages (match_id, author_id, body, is_referee, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		msg.MatchID, msg.AuthorID, msg.Body, msg.IsReferee, msg.CreatedAt,
	).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("failed to insert chat message: %w", err)
	}
	return nil
}

func (r *postgresChatRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.ChatMessage, error) {
	var out []*models.ChatMessage
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, match_id, author_id, body, is_referee, created_at
		FROM chat_messages WHERE match_id = $1 ORDER BY created_at, id`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat for match %d: %w", matchID, err)
	}
	return out, nil
}
