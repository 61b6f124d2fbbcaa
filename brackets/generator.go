package brackets

import (
	"context"
	"time"

	"github.com/Dosada05/esports-arena/models"
)

type GenerateBracketParams struct {
	Tournament *models.Tournament
	Teams      []*models.Team
	Now        time.Time
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error)

	GetName() string
}
