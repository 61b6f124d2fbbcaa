package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Dosada05/esports-arena/models"
	"github.com/Dosada05/esports-arena/repositories"
	"golang.org/x/time/rate"
)

const MaxChatMessageLength = 1000

type ChatService interface {
	PostMessage(ctx context.Context, matchID, actorID int, body string) (*models.ChatMessage, error)
	ListMessages(ctx context.Context, matchID int) ([]*models.ChatMessage, error)
	// PruneIdleLimiters забывает лимитеры авторов с полным ведром токенов.
	PruneIdleLimiters() int
}

// RestrictionChecker сообщает, действует ли на пользователя санкция одного из видов.
type RestrictionChecker interface {
	IsRestricted(ctx context.Context, userID int, kinds ...models.ActionKind) (bool, error)
}

// CanPost: писать могут только игроки и капитаны обеих команд и назначенный судья.
// Роль администратора прав не даёт.
func CanPost(actorID int, match *models.Match, team1, team2 *models.Team) bool {
	if match == nil {
		return false
	}
	if match.RefereeID != nil && *match.RefereeID == actorID {
		return true
	}
	return team1.HasMember(actorID) || team2.HasMember(actorID)
}

type ChatRateConfig struct {
	PerSecond float64
	Burst     int
}

type chatService struct {
	matchRepo    repositories.MatchRepository
	teamRepo     repositories.TeamRepository
	chatRepo     repositories.ChatRepository
	restrictions RestrictionChecker
	rateCfg      ChatRateConfig
	logger       *slog.Logger
	now          func() time.Time

	mu        sync.Mutex
	limiters  map[int]*rate.Limiter
	unlimited *rate.Limiter
}

func NewChatService(
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	chatRepo repositories.ChatRepository,
	restrictions RestrictionChecker,
	rateCfg ChatRateConfig,
	logger *slog.Logger,
) ChatService {
	return &chatService{
		matchRepo:    matchRepo,
		teamRepo:     teamRepo,
		chatRepo:     chatRepo,
		restrictions: restrictions,
		rateCfg:      rateCfg,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
		limiters:     make(map[int]*rate.Limiter),
		unlimited:    rate.NewLimiter(rate.Inf, 0),
	}
}

func (s *chatService) PostMessage(ctx context.Context, matchID, actorID int, body string) (*models.ChatMessage, error) {
	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError(err, "get match")
	}

	var ids []int
	for _, id := range []*int{m.Team1ID, m.Team2ID} {
		if id != nil {
			ids = append(ids, *id)
		}
	}
	teams, err := s.teamRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, handleRepositoryError(err, "load match teams")
	}
	var team1, team2 *models.Team
	if m.Team1ID != nil {
		team1 = teams[*m.Team1ID]
	}
	if m.Team2ID != nil {
		team2 = teams[*m.Team2ID]
	}
	if !CanPost(actorID, m, team1, team2) {
		return nil, fmt.Errorf("%w: user %d is not a participant or referee of match %d", ErrChatAccessDenied, actorID, matchID)
	}

	restricted, err := s.restrictions.IsRestricted(ctx, actorID, models.ActionMute, models.ActionBan)
	if err != nil {
		return nil, err
	}
	if restricted {
		return nil, fmt.Errorf("%w: user %d is muted or banned", ErrChatAccessDenied, actorID)
	}

	body = strings.TrimSpace(body)
	if n := utf8.RuneCountInString(body); n == 0 || n > MaxChatMessageLength {
		return nil, fmt.Errorf("%w: message must be 1..%d characters", ErrValidation, MaxChatMessageLength)
	}

	if !s.limiter(actorID).AllowN(s.now(), 1) {
		return nil, ErrRateLimited
	}

	msg := &models.ChatMessage{
		MatchID:   matchID,
		AuthorID:  actorID,
		Body:      body,
		IsReferee: m.RefereeID != nil && *m.RefereeID == actorID,
		CreatedAt: s.now(),
	}
	if err := s.chatRepo.Create(ctx, msg); err != nil {
		return nil, handleRepositoryError(err, "create chat message")
	}
	s.logger.DebugContext(ctx, "chat message posted",
		slog.Int("match_id", matchID), slog.Int("author_id", actorID), slog.Bool("is_referee", msg.IsReferee))
	return msg, nil
}

func (s *chatService) ListMessages(ctx context.Context, matchID int) ([]*models.ChatMessage, error) {
	if _, err := s.matchRepo.GetByID(ctx, matchID); err != nil {
		return nil, handleRepositoryError(err, "get match")
	}
	msgs, err := s.chatRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError(err, "list chat messages")
	}
	if msgs == nil {
		return []*models.ChatMessage{}, nil
	}
	return msgs, nil
}

func (s *chatService) limiter(actorID int) *rate.Limiter {
	if s.rateCfg.PerSecond <= 0 {
		return s.unlimited
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[actorID]
	if !ok {
		l = rate.NewLimiter(rate.Limit(s.rateCfg.PerSecond), s.rateCfg.Burst)
		s.limiters[actorID] = l
	}
	return l
}

func (s *chatService) PruneIdleLimiters() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	pruned := 0
	for id, l := range s.limiters {
		// полное ведро ничем не отличается от нового лимитера
		if l.TokensAt(now) >= float64(l.Burst()) {
			delete(s.limiters, id)
			pruned++
		}
	}
	return pruned
}
