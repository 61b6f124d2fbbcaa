// esports-arena/brackets/single_elimination.go
package brackets

import (
	"context"
	"fmt"
	"math"

	"github.com/Dosada05/esports-arena/models"
)

type SingleEliminationGenerator struct {
}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateBracket строит полную сетку: первый раунд заполняется по порядку
// регистрации, недостающие до степени двойки слоты становятся bye, для всех
// следующих раундов создаются пустые матчи. Bye первого раунда сразу
// разрешаются, так что возвращаемая арена уже продвинута.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tournament := params.Tournament
	teams := params.Teams
	n := len(teams)

	if n < 2 {
		return nil, fmt.Errorf("%w: found %d", ErrInsufficientTeams, n)
	}
	if tournament.TeamCapacity > 0 && n > tournament.TeamCapacity {
		return nil, fmt.Errorf("%w: %d registered, capacity %d", ErrCapacityExceeded, n, tournament.TeamCapacity)
	}

	seen := make(map[int]struct{}, n)
	for _, t := range teams {
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("%w: team %d", ErrDuplicateTeam, t.ID)
		}
		seen[t.ID] = struct{}{}
	}

	numRounds := int(math.Ceil(math.Log2(float64(n))))
	sizeOfFullBracket := 1 << uint(numRounds)

	matches := make([]*models.Match, 0, sizeOfFullBracket-1)
	for r := 1; r <= numRounds; r++ {
		matchesInRound := sizeOfFullBracket >> uint(r)
		for s := 0; s < matchesInRound; s++ {
			m := &models.Match{
				TournamentID: tournament.ID,
				Round:        r,
				Slot:         s,
				Status:       models.MatchUpcoming,
				UpdatedAt:    params.Now,
			}
			if r == 1 {
				seedSide(m, models.Side1, teams, 2*s)
				seedSide(m, models.Side2, teams, 2*s+1)
			}
			matches = append(matches, m)
		}
	}

	bracket, err := New(tournament.ID, matches)
	if err != nil {
		return nil, err
	}

	for _, m := range bracket.rounds[0] {
		if _, err := bracket.settle(m, params.Now, nil); err != nil {
			return nil, err
		}
	}

	return bracket, nil
}

func seedSide(m *models.Match, side models.Side, teams []*models.Team, idx int) {
	if idx < len(teams) {
		id := teams[idx].ID
		m.SetTeam(side, &id)
		return
	}
	m.SetBye(side, true)
}
