package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/esports-arena/brackets"
	"github.com/Dosada05/esports-arena/models"
	"github.com/Dosada05/esports-arena/repositories"
)

type MatchService interface {
	GetMatch(ctx context.Context, id int) (*models.Match, error)
	StartMatch(ctx context.Context, id int, startedAt time.Time) (*models.Match, error)
	UpdateScore(ctx context.Context, id int, score1, score2 int) (*models.Match, error)
	CompleteMatch(ctx context.Context, id int) (*MatchResult, error)
	DisputeMatch(ctx context.Context, id int, reason string) (*models.Match, error)
	ReopenMatch(ctx context.Context, id int) (*models.Match, error)
	ReinstateMatch(ctx context.Context, id int) (*MatchResult, error)
	NullifyMatch(ctx context.Context, id int, reason string) (*models.Match, error)
	ScheduleMatch(ctx context.Context, id int, input ScheduleMatchInput) (*models.Match, error)
	AssignReferee(ctx context.Context, id int, refereeID int) (*models.Match, error)
}

type ScheduleMatchInput struct {
	ScheduledAt *time.Time
	MapName     *string
}

// MatchResult - матч после изменения и все матчи, затронутые продвижением.
type MatchResult struct {
	Match          *models.Match   `json:"match"`
	Advanced       []*models.Match `json:"advanced"`
	ChampionTeamID *int            `json:"champion_team_id,omitempty"`
}

type matchService struct {
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	userRepo       repositories.UserRepository
	locks          *KeyedLocker
	logger         *slog.Logger
	now            func() time.Time
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
	locks *KeyedLocker,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		userRepo:       userRepo,
		locks:          locks,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *matchService) GetMatch(ctx context.Context, id int) (*models.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err, "get match")
	}
	return m, nil
}

func (s *matchService) StartMatch(ctx context.Context, id int, startedAt time.Time) (*models.Match, error) {
	return s.mutate(ctx, id, ActionStart, func(m *models.Match, now time.Time) error {
		if m.Team1ID == nil || m.Team2ID == nil {
			return fmt.Errorf("%w: match %d does not have both teams yet", ErrInvalidTransition, m.ID)
		}
		if startedAt.IsZero() {
			startedAt = now
		}
		m.StartedAt = timePtr(startedAt.UTC())
		return nil
	})
}

func (s *matchService) UpdateScore(ctx context.Context, id int, score1, score2 int) (*models.Match, error) {
	if score1 < 0 || score2 < 0 {
		return nil, fmt.Errorf("%w: scores must be non-negative", ErrValidation)
	}
	return s.mutate(ctx, id, ActionScore, func(m *models.Match, _ time.Time) error {
		m.Score1, m.Score2 = score1, score2
		return nil
	})
}

func (s *matchService) DisputeMatch(ctx context.Context, id int, reason string) (*models.Match, error) {
	reason, err := requireReason(reason)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, ActionDispute, func(m *models.Match, _ time.Time) error {
		m.DisputeReason = strPtr(reason)
		return nil
	})
}

func (s *matchService) ReopenMatch(ctx context.Context, id int) (*models.Match, error) {
	return s.mutate(ctx, id, ActionReopen, func(m *models.Match, _ time.Time) error {
		if m.WinnerID != nil {
			return fmt.Errorf("%w: match %d already has a winner, reinstate it instead", ErrInvalidTransition, m.ID)
		}
		return nil
	})
}

// NullifyMatch аннулирует матч без продвижения. Матч с уже записанным
// победителем (оспоренный после завершения) аннулировать нельзя.
func (s *matchService) NullifyMatch(ctx context.Context, id int, reason string) (*models.Match, error) {
	reason, err := requireReason(reason)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, ActionNullify, func(m *models.Match, _ time.Time) error {
		// победитель неизменяем
		if m.WinnerID != nil {
			return fmt.Errorf("%w: match %d has a recorded winner", ErrInvalidTransition, m.ID)
		}
		m.NullifyReason = strPtr(reason)
		return nil
	})
}

func (s *matchService) ScheduleMatch(ctx context.Context, id int, input ScheduleMatchInput) (*models.Match, error) {
	if input.ScheduledAt == nil && input.MapName == nil {
		return nil, fmt.Errorf("%w: nothing to schedule", ErrValidation)
	}
	return s.mutate(ctx, id, ActionSchedule, func(m *models.Match, _ time.Time) error {
		if input.ScheduledAt != nil {
			m.ScheduledAt = timePtr(input.ScheduledAt.UTC())
		}
		if input.MapName != nil {
			name := strings.TrimSpace(*input.MapName)
			if name == "" {
				m.MapName = nil
			} else {
				m.MapName = &name
			}
		}
		return nil
	})
}

func (s *matchService) AssignReferee(ctx context.Context, id int, refereeID int) (*models.Match, error) {
	if _, err := s.userRepo.GetByID(ctx, refereeID); err != nil {
		err = handleRepositoryError(err, "get referee")
		if errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("%w: referee %d does not exist", ErrValidation, refereeID)
		}
		return nil, err
	}
	return s.mutate(ctx, id, ActionSchedule, func(m *models.Match, _ time.Time) error {
		m.RefereeID = &refereeID
		return nil
	})
}

func (s *matchService) CompleteMatch(ctx context.Context, id int) (*MatchResult, error) {
	result, err := s.mutatePath(ctx, id, ActionComplete, func(b *brackets.Bracket, m *models.Match, now time.Time) (*MatchResult, error) {
		if m.Score1 == m.Score2 {
			return nil, fmt.Errorf("%w: %d:%d", ErrTiedScoreNotAllowed, m.Score1, m.Score2)
		}
		winner := *m.Team1ID
		if m.Score2 > m.Score1 {
			winner = *m.Team2ID
		}
		m.WinnerID = &winner
		m.CompletedAt = timePtr(now)

		result := &MatchResult{Match: m}
		if b.IsFinal(m) {
			result.ChampionTeamID = &winner
			return result, nil
		}
		changes, err := b.Advance(m, now)
		if err != nil {
			return nil, mapBracketError(err)
		}
		result.Advanced = changes.Matches()
		result.ChampionTeamID = changes.Champion(b)
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "match completed",
		slog.Int("match_id", id),
		slog.Int("winner_team_id", *result.Match.WinnerID),
		slog.Int("advanced", len(result.Advanced)),
	)
	if result.ChampionTeamID != nil {
		s.logger.InfoContext(ctx, "tournament champion decided",
			slog.Int("tournament_id", result.Match.TournamentID),
			slog.Int("team_id", *result.ChampionTeamID),
		)
	}
	return result, nil
}

func (s *matchService) ReinstateMatch(ctx context.Context, id int) (*MatchResult, error) {
	return s.mutatePath(ctx, id, ActionReinstate, func(_ *brackets.Bracket, m *models.Match, _ time.Time) (*MatchResult, error) {
		// победитель уже продвинут при первом завершении, повторного продвижения нет
		if m.WinnerID == nil {
			return nil, fmt.Errorf("%w: match %d has no recorded winner, reopen it instead", ErrInvalidTransition, m.ID)
		}
		return &MatchResult{Match: m}, nil
	})
}

// mutate - изменение одного матча под блокировкой его адреса.
func (s *matchService) mutate(ctx context.Context, id int, action MatchAction, apply func(m *models.Match, now time.Time) error) (*models.Match, error) {
	current, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err, "get match")
	}

	unlock, err := s.locks.Lock(ctx, matchLockKey(current.TournamentID, current.Round, current.Slot))
	if err != nil {
		return nil, err
	}
	defer unlock()

	m, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err, "reload match")
	}
	to, err := nextMatchStatus(m.Status, action)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := apply(m, now); err != nil {
		return nil, err
	}
	from := m.Status
	m.Status = to
	m.UpdatedAt = now

	if err := s.matchRepo.Update(ctx, m); err != nil {
		return nil, handleRepositoryError(err, "update match")
	}

	s.logger.InfoContext(ctx, "match updated",
		slog.Int("match_id", m.ID),
		slog.String("action", string(action)),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
	return m, nil
}

// mutatePath блокирует матч и всю цепочку его преемников, строит сетку
// из свежих данных и сохраняет все изменения одной транзакцией.
func (s *matchService) mutatePath(
	ctx context.Context,
	id int,
	action MatchAction,
	apply func(b *brackets.Bracket, m *models.Match, now time.Time) (*MatchResult, error),
) (*MatchResult, error) {
	current, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err, "get match")
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, current.TournamentID)
	if err != nil {
		return nil, handleRepositoryError(err, "get tournament")
	}

	unlock, err := s.locks.Lock(ctx, pathLockKeys(current.TournamentID, current.Round, current.Slot, tournament.RoundCount)...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	b, err := loadBracket(ctx, s.matchRepo, current.TournamentID)
	if err != nil {
		return nil, err
	}
	m := b.ByID(id)
	if m == nil {
		return nil, ErrMatchNotFound
	}
	to, err := nextMatchStatus(m.Status, action)
	if err != nil {
		return nil, err
	}

	now := s.now()
	m.Status = to
	m.UpdatedAt = now
	result, err := apply(b, m, now)
	if err != nil {
		return nil, err
	}

	changed := append([]*models.Match{m}, result.Advanced...)
	if err := s.matchRepo.SaveResults(ctx, m.TournamentID, changed, result.ChampionTeamID); err != nil {
		return nil, handleRepositoryError(err, "save match results")
	}
	return result, nil
}
