package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/esports-arena/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRestrictions struct {
	restricted map[int]bool
}

func (f *fakeRestrictions) IsRestricted(_ context.Context, userID int, _ ...models.ActionKind) (bool, error) {
	return f.restricted[userID], nil
}

const (
	captain1 = 10
	player1  = 11
	captain2 = 20
	referee  = 30
	admin    = 40
)

func newChatFixture(t *testing.T, rateCfg ChatRateConfig) (*chatService, *fakeRestrictions, int) {
	t.Helper()
	matches := newFakeMatchRepo()
	m := &models.Match{
		TournamentID: testTournamentID, Round: 1, Slot: 0,
		Team1ID: intPtr(100), Team2ID: intPtr(101), RefereeID: intPtr(referee),
		Status: models.MatchInProgress,
	}
	matches.insert(m)

	teams := newFakeTeamRepo()
	teams.register(testTournamentID,
		&models.Team{ID: 100, CaptainID: captain1, Members: []models.Player{{UserID: player1, TeamID: 100}}},
		&models.Team{ID: 101, CaptainID: captain2},
	)
	restrictions := &fakeRestrictions{restricted: map[int]bool{}}
	svc := NewChatService(matches, teams, &fakeChatRepo{}, restrictions, rateCfg, testLogger()).(*chatService)
	svc.now = fixedClock(testNow)
	return svc, restrictions, m.ID
}

func TestCanPost(t *testing.T) {
	m := &models.Match{RefereeID: intPtr(referee)}
	team1 := &models.Team{ID: 100, CaptainID: captain1, Members: []models.Player{{UserID: player1}}}
	team2 := &models.Team{ID: 101, CaptainID: captain2}

	assert.True(t, CanPost(captain1, m, team1, team2))
	assert.True(t, CanPost(player1, m, team1, team2))
	assert.True(t, CanPost(captain2, m, team1, team2))
	assert.True(t, CanPost(referee, m, team1, team2))
	assert.False(t, CanPost(admin, m, team1, team2), "admin role grants nothing")
	assert.False(t, CanPost(captain1, nil, team1, team2))
	assert.False(t, CanPost(captain2, m, team1, nil))
}

func TestChatService_PostMessage(t *testing.T) {
	svc, _, id := newChatFixture(t, ChatRateConfig{})
	ctx := context.Background()

	msg, err := svc.PostMessage(ctx, id, player1, "  gg wp  ")
	require.NoError(t, err)
	assert.Equal(t, "gg wp", msg.Body)
	assert.False(t, msg.IsReferee)
	assert.Equal(t, testNow, msg.CreatedAt)

	msg, err = svc.PostMessage(ctx, id, referee, "pause approved")
	require.NoError(t, err)
	assert.True(t, msg.IsReferee)

	list, err := svc.ListMessages(ctx, id)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestChatService_AccessDenied(t *testing.T) {
	svc, restrictions, id := newChatFixture(t, ChatRateConfig{})
	ctx := context.Background()

	_, err := svc.PostMessage(ctx, id, admin, "hello")
	assert.ErrorIs(t, err, ErrChatAccessDenied)

	restrictions.restricted[captain2] = true
	_, err = svc.PostMessage(ctx, id, captain2, "hello")
	assert.ErrorIs(t, err, ErrChatAccessDenied, "muted")

	_, err = svc.PostMessage(ctx, 404, captain1, "hello")
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestChatService_BodyValidation(t *testing.T) {
	svc, _, id := newChatFixture(t, ChatRateConfig{})
	ctx := context.Background()

	_, err := svc.PostMessage(ctx, id, captain1, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.PostMessage(ctx, id, captain1, strings.Repeat("я", MaxChatMessageLength+1))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.PostMessage(ctx, id, captain1, strings.Repeat("я", MaxChatMessageLength))
	assert.NoError(t, err)
}

func TestChatService_RateLimited(t *testing.T) {
	svc, _, id := newChatFixture(t, ChatRateConfig{PerSecond: 0.001, Burst: 2})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.PostMessage(ctx, id, captain1, "spam")
		require.NoError(t, err)
	}
	_, err := svc.PostMessage(ctx, id, captain1, "spam")
	assert.ErrorIs(t, err, ErrRateLimited)

	// лимит считается на автора
	_, err = svc.PostMessage(ctx, id, captain2, "not spam")
	assert.NoError(t, err)
}

func TestChatService_PruneIdleLimiters(t *testing.T) {
	svc, _, id := newChatFixture(t, ChatRateConfig{PerSecond: 1, Burst: 2})
	ctx := context.Background()

	_, err := svc.PostMessage(ctx, id, captain1, "gl")
	require.NoError(t, err)
	_, err = svc.PostMessage(ctx, id, captain2, "hf")
	require.NoError(t, err)
	_, err = svc.PostMessage(ctx, id, captain2, "again")
	require.NoError(t, err)

	// ведро captain1 ещё не восполнилось
	assert.Equal(t, 0, svc.PruneIdleLimiters())
	assert.Len(t, svc.limiters, 2)

	svc.now = fixedClock(testNow.Add(1500 * time.Millisecond))
	assert.Equal(t, 1, svc.PruneIdleLimiters())
	assert.NotContains(t, svc.limiters, captain1)
	assert.Contains(t, svc.limiters, captain2)

	svc.now = fixedClock(testNow.Add(5 * time.Second))
	assert.Equal(t, 1, svc.PruneIdleLimiters())
	assert.Empty(t, svc.limiters)
}

func TestChatService_UnlimitedIsNotTracked(t *testing.T) {
	svc, _, id := newChatFixture(t, ChatRateConfig{})

	for i := 0; i < 3; i++ {
		_, err := svc.PostMessage(context.Background(), id, captain1, "hi")
		require.NoError(t, err)
	}
	assert.Empty(t, svc.limiters)
}
