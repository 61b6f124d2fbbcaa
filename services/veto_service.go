package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Dosada05/esports-arena/models"
	"github.com/Dosada05/esports-arena/repositories"
)

const MaxVetoNameLength = 64

type VetoService interface {
	RecordVeto(ctx context.Context, input RecordVetoInput) (*models.VetoEntry, error)
	ListVeto(ctx context.Context, matchID int) ([]*models.VetoEntry, error)
}

type RecordVetoInput struct {
	MatchID int
	TeamID  int
	ActorID int
	Name    string
	Kind    models.VetoKind
}

type vetoService struct {
	matchRepo repositories.MatchRepository
	teamRepo  repositories.TeamRepository
	vetoRepo  repositories.VetoRepository
	locks     *KeyedLocker
	logger    *slog.Logger
	now       func() time.Time
}

func NewVetoService(
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	vetoRepo repositories.VetoRepository,
	locks *KeyedLocker,
	logger *slog.Logger,
) VetoService {
	return &vetoService{
		matchRepo: matchRepo,
		teamRepo:  teamRepo,
		vetoRepo:  vetoRepo,
		locks:     locks,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RecordVeto добавляет шаг бан/пика от капитана одной из команд матча.
// Шаги принимаются, пока матч не завершён, одно имя нельзя использовать дважды.
func (s *vetoService) RecordVeto(ctx context.Context, input RecordVetoInput) (*models.VetoEntry, error) {
	name := strings.TrimSpace(input.Name)
	if n := utf8.RuneCountInString(name); n == 0 || n > MaxVetoNameLength {
		return nil, fmt.Errorf("%w: name must be 1..%d characters", ErrValidation, MaxVetoNameLength)
	}
	if !input.Kind.Valid() {
		return nil, fmt.Errorf("%w: kind must be ban or pick, got %q", ErrValidation, input.Kind)
	}

	current, err := s.matchRepo.GetByID(ctx, input.MatchID)
	if err != nil {
		return nil, handleRepositoryError(err, "get match")
	}
	unlock, err := s.locks.Lock(ctx, matchLockKey(current.TournamentID, current.Round, current.Slot))
	if err != nil {
		return nil, err
	}
	defer unlock()

	m, err := s.matchRepo.GetByID(ctx, input.MatchID)
	if err != nil {
		return nil, handleRepositoryError(err, "reload match")
	}
	if m.Status != models.MatchUpcoming && m.Status != models.MatchInProgress {
		return nil, fmt.Errorf("%w: veto is closed for a %s match", ErrInvalidTransition, m.Status)
	}
	if m.Team1ID == nil || m.Team2ID == nil {
		return nil, fmt.Errorf("%w: match %d does not have both teams yet", ErrInvalidTransition, m.ID)
	}
	if _, ok := m.SideOf(input.TeamID); !ok {
		return nil, fmt.Errorf("%w: team %d does not play in match %d", ErrValidation, input.TeamID, m.ID)
	}

	teams, err := s.teamRepo.GetByIDs(ctx, []int{input.TeamID})
	if err != nil {
		return nil, handleRepositoryError(err, "load team")
	}
	team := teams[input.TeamID]
	if team == nil || team.CaptainID != input.ActorID {
		return nil, fmt.Errorf("%w: only the captain of team %d can ban or pick", ErrForbiddenOperation, input.TeamID)
	}

	entry := &models.VetoEntry{
		MatchID:   m.ID,
		TeamID:    input.TeamID,
		Name:      name,
		Kind:      input.Kind,
		CreatedAt: s.now(),
	}
	if err := s.vetoRepo.Create(ctx, entry); err != nil {
		return nil, handleRepositoryError(err, "create veto step")
	}

	s.logger.InfoContext(ctx, "veto step recorded",
		slog.Int("match_id", m.ID),
		slog.Int("team_id", input.TeamID),
		slog.String("kind", string(entry.Kind)),
		slog.String("name", entry.Name),
		slog.Int("order", entry.Order),
	)
	return entry, nil
}

func (s *vetoService) ListVeto(ctx context.Context, matchID int) ([]*models.VetoEntry, error) {
	if _, err := s.matchRepo.GetByID(ctx, matchID); err != nil {
		return nil, handleRepositoryError(err, "get match")
	}
	out, err := s.vetoRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError(err, "list veto")
	}
	if out == nil {
		return []*models.VetoEntry{}, nil
	}
	return out, nil
}
