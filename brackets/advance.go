package brackets

import (
	"fmt"
	"time"

	"github.com/Dosada05/esports-arena/models"
)

// Changes накапливает изменённые матчи в порядке изменения, без дублей.
type Changes struct {
	matches []*models.Match
	seen    map[*models.Match]struct{}
}

func (c *Changes) add(m *models.Match) {
	if c.seen == nil {
		c.seen = make(map[*models.Match]struct{})
	}
	if _, ok := c.seen[m]; ok {
		return
	}
	c.seen[m] = struct{}{}
	c.matches = append(c.matches, m)
}

func (c *Changes) Matches() []*models.Match {
	if c == nil {
		return nil
	}
	return c.matches
}

// Champion возвращает победителя финала, если финал был разрешён в этом наборе.
func (c *Changes) Champion(b *Bracket) *int {
	if c == nil {
		return nil
	}
	for _, m := range c.matches {
		if b.IsFinal(m) && m.Status == models.MatchCompleted && m.WinnerID != nil {
			id := *m.WinnerID
			return &id
		}
	}
	return nil
}

// Advance переносит результат завершённого матча в матч следующего раунда.
// Если у преемника противоположная сторона - bye, он сразу завершается
// и продвижение продолжается рекурсивно.
func (b *Bracket) Advance(m *models.Match, now time.Time) (*Changes, error) {
	if b.At(m.Round, m.Slot) != m {
		return nil, fmt.Errorf("%w: match %d is not part of this bracket", ErrInvalidTopology, m.ID)
	}
	if b.IsFinal(m) {
		return nil, fmt.Errorf("%w: match %d is the final", ErrInvalidTransition, m.ID)
	}
	if m.Status != models.MatchCompleted {
		return nil, fmt.Errorf("%w: match %d is %s, not completed", ErrInvalidTransition, m.ID, m.Status)
	}

	changes := &Changes{}
	if err := b.propagate(m, now, changes); err != nil {
		return nil, err
	}
	return changes, nil
}

// Withdraw снимает команду с несыгранного матча: её сторона становится bye,
// дальше матч разрешается так же, как матч с bye.
func (b *Bracket) Withdraw(m *models.Match, teamID int, now time.Time) (*Changes, error) {
	if b.At(m.Round, m.Slot) != m {
		return nil, fmt.Errorf("%w: match %d is not part of this bracket", ErrInvalidTopology, m.ID)
	}
	if m.Status != models.MatchUpcoming {
		return nil, fmt.Errorf("%w: cannot withdraw from a %s match", ErrInvalidTransition, m.Status)
	}
	side, ok := m.SideOf(teamID)
	if !ok {
		return nil, fmt.Errorf("%w: team %d, match %d", ErrTeamNotInMatch, teamID, m.ID)
	}

	m.SetTeam(side, nil)
	m.SetBye(side, true)
	m.UpdatedAt = now

	changes := &Changes{}
	changes.add(m)
	if _, err := b.settle(m, now, changes); err != nil {
		return nil, err
	}
	return changes, nil
}

func (b *Bracket) propagate(m *models.Match, now time.Time, changes *Changes) error {
	next := b.Successor(m)
	if next == nil {
		return nil
	}
	side := SideForSlot(m.Slot)

	// аннулированный преемник ждёт перепланирования, продвижение на нём останавливается
	if next.Status == models.MatchNullified {
		return nil
	}
	if next.Status != models.MatchUpcoming {
		return fmt.Errorf("%w: successor match %d is already %s", ErrInvalidTransition, next.ID, next.Status)
	}
	if next.Team(side) != nil || next.IsBye(side) {
		return fmt.Errorf("%w: side %d of match %d is already resolved", ErrInvalidTransition, side, next.ID)
	}

	if m.WinnerID != nil {
		winner := *m.WinnerID
		next.SetTeam(side, &winner)
	} else {
		next.SetBye(side, true)
	}
	next.UpdatedAt = now
	if changes != nil {
		changes.add(next)
	}

	_, err := b.settle(next, now, changes)
	return err
}

// settle завершает несыгранный матч, если хотя бы одна его сторона - bye,
// а другая уже известна. Матч bye против bye завершается без победителя
// и продвигает дальше bye.
func (b *Bracket) settle(m *models.Match, now time.Time, changes *Changes) (bool, error) {
	if m.Status != models.MatchUpcoming {
		return false, nil
	}

	switch {
	case m.Team1Bye && m.Team2Bye:
		m.WinnerID = nil
	case m.Team1Bye && m.Team2ID != nil:
		winner := *m.Team2ID
		m.WinnerID = &winner
	case m.Team2Bye && m.Team1ID != nil:
		winner := *m.Team1ID
		m.WinnerID = &winner
	default:
		return false, nil
	}

	m.Status = models.MatchCompleted
	m.Walkover = true
	completedAt := now
	m.CompletedAt = &completedAt
	m.UpdatedAt = now
	if changes != nil {
		changes.add(m)
	}

	return true, b.propagate(m, now, changes)
}
