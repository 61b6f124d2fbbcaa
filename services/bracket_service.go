package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/esports-arena/brackets"
	"github.com/Dosada05/esports-arena/models"
	"github.com/Dosada05/esports-arena/repositories"
	"golang.org/x/sync/errgroup"
)

type BracketService interface {
	GenerateBracket(ctx context.Context, tournamentID int) (*BracketView, error)
	GetBracket(ctx context.Context, tournamentID int, style string) (*BracketView, error)
	WithdrawTeam(ctx context.Context, matchID int, teamID int) (*MatchResult, error)
}

// BracketView - сетка для чтения. Skin заполняется по запрошенному стилю
// или по стилю турнира, если запрос его не задаёт.
type BracketView struct {
	Tournament *models.Tournament   `json:"tournament"`
	Rounds     []models.Round       `json:"rounds"`
	Teams      map[int]*models.Team `json:"teams"`
	Skin       *brackets.SkinView   `json:"skin,omitempty"`
}

type bracketService struct {
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	teamRepo       repositories.TeamRepository
	generator      brackets.BracketGenerator
	locks          *KeyedLocker
	logger         *slog.Logger
	now            func() time.Time
}

func NewBracketService(
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	generator brackets.BracketGenerator,
	locks *KeyedLocker,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		teamRepo:       teamRepo,
		generator:      generator,
		locks:          locks,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *bracketService) GenerateBracket(ctx context.Context, tournamentID int) (*BracketView, error) {
	unlock, err := s.locks.Lock(ctx, tournamentLockKey(tournamentID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err, "get tournament")
	}
	if tournament.HasBracket() {
		return nil, fmt.Errorf("%w: bracket for tournament %d is already generated", ErrInvalidTransition, tournamentID)
	}

	teams, err := s.teamRepo.ListRegistered(ctx, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err, "list registered teams")
	}

	s.logger.InfoContext(ctx, "generating bracket",
		slog.Int("tournament_id", tournamentID),
		slog.String("generator", s.generator.GetName()),
		slog.Int("teams", len(teams)),
	)

	bracket, err := s.generator.GenerateBracket(ctx, brackets.GenerateBracketParams{
		Tournament: tournament,
		Teams:      teams,
		Now:        s.now(),
	})
	if err != nil {
		return nil, mapBracketError(err)
	}

	if err := s.tournamentRepo.SaveBracket(ctx, tournamentID, bracket.RoundCount(), bracket.Matches()); err != nil {
		return nil, handleRepositoryError(err, "save bracket")
	}

	tournament.RoundCount = bracket.RoundCount()
	tournament.Status = models.StatusActive
	tournament.RegistrationOpen = false

	byID := make(map[int]*models.Team, len(teams))
	for _, t := range teams {
		byID[t.ID] = t
	}

	s.logger.InfoContext(ctx, "bracket generated",
		slog.Int("tournament_id", tournamentID),
		slog.Int("rounds", bracket.RoundCount()),
		slog.Int("slots", bracket.FirstRoundSlots()),
	)
	return &BracketView{Tournament: tournament, Rounds: bracket.Rounds(), Teams: byID}, nil
}

func (s *bracketService) GetBracket(ctx context.Context, tournamentID int, style string) (*BracketView, error) {
	view := &BracketView{}
	var matches []*models.Match
	var teams []*models.Team

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := s.tournamentRepo.GetByID(gCtx, tournamentID)
		if err != nil {
			return handleRepositoryError(err, "get tournament")
		}
		view.Tournament = t
		return nil
	})

	g.Go(func() error {
		ms, err := s.matchRepo.ListByTournament(gCtx, tournamentID)
		if err != nil {
			return handleRepositoryError(err, "list matches")
		}
		matches = ms
		return nil
	})

	g.Go(func() error {
		ts, err := s.teamRepo.ListRegistered(gCtx, tournamentID)
		if err != nil {
			return handleRepositoryError(err, "list registered teams")
		}
		teams = ts
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	view.Rounds = brackets.RoundsFromMatches(matches)
	view.Teams = make(map[int]*models.Team, len(teams))
	for _, t := range teams {
		view.Teams[t.ID] = t
	}

	if style == "" {
		style = view.Tournament.BracketStyle
	}
	if style == "" {
		return view, nil
	}
	skin, err := brackets.SkinByName(style)
	if err != nil {
		if errors.Is(err, brackets.ErrUnknownSkin) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, err
	}
	rendered := skin.Render(view.Tournament, view.Rounds, view.Teams)
	view.Skin = &rendered
	return view, nil
}

func (s *bracketService) WithdrawTeam(ctx context.Context, matchID int, teamID int) (*MatchResult, error) {
	current, err := s.matchRepo.GetByID(ctx, matchID)
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
	m := b.ByID(matchID)
	if m == nil {
		return nil, ErrMatchNotFound
	}

	changes, err := b.Withdraw(m, teamID, s.now())
	if err != nil {
		return nil, mapBracketError(err)
	}

	champion := changes.Champion(b)
	if err := s.matchRepo.SaveResults(ctx, current.TournamentID, changes.Matches(), champion); err != nil {
		return nil, handleRepositoryError(err, "save withdrawal")
	}

	s.logger.InfoContext(ctx, "team withdrawn",
		slog.Int("match_id", matchID),
		slog.Int("team_id", teamID),
		slog.Int("changed", len(changes.Matches())),
	)

	var advanced []*models.Match
	for _, c := range changes.Matches() {
		if c != m {
			advanced = append(advanced, c)
		}
	}
	return &MatchResult{Match: m, Advanced: advanced, ChampionTeamID: champion}, nil
}

// loadBracket собирает арену из свежих копий матчей турнира.
func loadBracket(ctx context.Context, matchRepo repositories.MatchRepository, tournamentID int) (*brackets.Bracket, error) {
	matches, err := matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err, "list matches")
	}
	if len(matches) == 0 {
		return nil, ErrBracketNotFound
	}
	for i, m := range matches {
		matches[i] = m.Clone()
	}
	b, err := brackets.New(tournamentID, matches)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return b, nil
}
