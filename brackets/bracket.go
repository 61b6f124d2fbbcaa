package brackets

import (
	"fmt"
	"sort"

	"github.com/Dosada05/esports-arena/models"
)

// Address - позиция матча в сетке.
type Address struct {
	Round int
	Slot  int
}

// Bracket - арена матчей, индексируемая (раунд, слот).
// Связей родитель/потомок нет: преемник вычисляется как (r+1, slot/2).
type Bracket struct {
	TournamentID int
	rounds       [][]*models.Match
}

// New собирает арену из плоского списка матчей и проверяет топологию.
func New(tournamentID int, matches []*models.Match) (*Bracket, error) {
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no matches", ErrInvalidTopology)
	}

	roundCount := 0
	for _, m := range matches {
		if m.Round > roundCount {
			roundCount = m.Round
		}
	}

	rounds := make([][]*models.Match, roundCount)
	for r := 1; r <= roundCount; r++ {
		rounds[r-1] = make([]*models.Match, 1<<uint(roundCount-r))
	}

	for _, m := range matches {
		if m.TournamentID != tournamentID {
			return nil, fmt.Errorf("%w: match %d belongs to tournament %d", ErrInvalidTopology, m.ID, m.TournamentID)
		}
		if m.Round < 1 || m.Slot < 0 || m.Slot >= len(rounds[m.Round-1]) {
			return nil, fmt.Errorf("%w: match %d has address (%d,%d)", ErrInvalidTopology, m.ID, m.Round, m.Slot)
		}
		if rounds[m.Round-1][m.Slot] != nil {
			return nil, fmt.Errorf("%w: duplicate address (%d,%d)", ErrInvalidTopology, m.Round, m.Slot)
		}
		rounds[m.Round-1][m.Slot] = m
	}

	for r, slots := range rounds {
		for s, m := range slots {
			if m == nil {
				return nil, fmt.Errorf("%w: missing match at (%d,%d)", ErrInvalidTopology, r+1, s)
			}
		}
	}

	return &Bracket{TournamentID: tournamentID, rounds: rounds}, nil
}

func (b *Bracket) RoundCount() int {
	return len(b.rounds)
}

// FirstRoundSlots - число слотов участников в первом раунде (степень двойки).
func (b *Bracket) FirstRoundSlots() int {
	if len(b.rounds) == 0 {
		return 0
	}
	return 2 * len(b.rounds[0])
}

func (b *Bracket) At(round, slot int) *models.Match {
	if round < 1 || round > len(b.rounds) {
		return nil
	}
	slots := b.rounds[round-1]
	if slot < 0 || slot >= len(slots) {
		return nil
	}
	return slots[slot]
}

func (b *Bracket) ByID(id int) *models.Match {
	for _, slots := range b.rounds {
		for _, m := range slots {
			if m.ID == id {
				return m
			}
		}
	}
	return nil
}

// IsFinal - матч последнего раунда, преемника нет.
func (b *Bracket) IsFinal(m *models.Match) bool {
	return m.Round == len(b.rounds)
}

func (b *Bracket) Successor(m *models.Match) *models.Match {
	if b.IsFinal(m) {
		return nil
	}
	r, s := SuccessorAddress(m.Round, m.Slot)
	return b.At(r, s)
}

// Matches возвращает все матчи в порядке раунд/слот.
func (b *Bracket) Matches() []*models.Match {
	out := make([]*models.Match, 0, 2*len(b.rounds[0]))
	for _, slots := range b.rounds {
		out = append(out, slots...)
	}
	return out
}

func (b *Bracket) Rounds() []models.Round {
	out := make([]models.Round, len(b.rounds))
	for i, slots := range b.rounds {
		matches := make([]*models.Match, len(slots))
		copy(matches, slots)
		out[i] = models.Round{Index: i + 1, Matches: matches}
	}
	return out
}

// SuccessorAddress: nextSlot = floor(slot / 2).
func SuccessorAddress(round, slot int) (int, int) {
	return round + 1, slot / 2
}

// SideForSlot: чётный слот пишет в сторону 1, нечётный в сторону 2.
func SideForSlot(slot int) models.Side {
	if slot%2 == 0 {
		return models.Side1
	}
	return models.Side2
}

// Path возвращает адрес матча и всех его преемников до финала включительно.
func Path(round, slot, roundCount int) []Address {
	if round < 1 || round > roundCount {
		return nil
	}
	path := make([]Address, 0, roundCount-round+1)
	for r, s := round, slot; r <= roundCount; r, s = SuccessorAddress(r, s) {
		path = append(path, Address{Round: r, Slot: s})
	}
	return path
}

// RoundsFromMatches группирует матчи без проверки топологии (для чтения).
func RoundsFromMatches(matches []*models.Match) []models.Round {
	byRound := make(map[int][]*models.Match)
	var indexes []int
	for _, m := range matches {
		if _, ok := byRound[m.Round]; !ok {
			indexes = append(indexes, m.Round)
		}
		byRound[m.Round] = append(byRound[m.Round], m)
	}
	sort.Ints(indexes)

	rounds := make([]models.Round, 0, len(indexes))
	for _, r := range indexes {
		ms := byRound[r]
		sort.Slice(ms, func(i, j int) bool { return ms[i].Slot < ms[j].Slot })
		rounds = append(rounds, models.Round{Index: r, Matches: ms})
	}
	return rounds
}
