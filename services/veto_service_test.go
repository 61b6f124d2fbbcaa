package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/Dosada05/esports-arena/models"
	"github.com/Dosada05/esports-arena/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVetoRepo struct {
	mu      sync.Mutex
	entries []*models.VetoEntry
}

func (r *fakeVetoRepo) Create(_ context.Context, v *models.VetoEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order := 0
	for _, e := range r.entries {
		if e.MatchID != v.MatchID {
			continue
		}
		if strings.EqualFold(e.Name, v.Name) {
			return repositories.ErrVetoNameTaken
		}
		order = e.Order
	}
	v.ID = len(r.entries) + 1
	v.Order = order + 1
	r.entries = append(r.entries, v)
	return nil
}

func (r *fakeVetoRepo) ListByMatch(_ context.Context, matchID int) ([]*models.VetoEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.VetoEntry
	for _, e := range r.entries {
		if e.MatchID == matchID {
			out = append(out, e)
		}
	}
	return out, nil
}

func newVetoFixture(t *testing.T, status models.MatchStatus) (*vetoService, *fakeMatchRepo, int) {
	t.Helper()
	matches := newFakeMatchRepo()
	m := &models.Match{
		TournamentID: testTournamentID, Round: 1, Slot: 0,
		Team1ID: intPtr(100), Team2ID: intPtr(101), RefereeID: intPtr(referee),
		Status: status,
	}
	matches.insert(m)

	teams := newFakeTeamRepo()
	teams.register(testTournamentID,
		&models.Team{ID: 100, CaptainID: captain1, Members: []models.Player{{UserID: player1, TeamID: 100}}},
		&models.Team{ID: 101, CaptainID: captain2},
	)
	svc := NewVetoService(matches, teams, &fakeVetoRepo{}, NewKeyedLocker(), testLogger()).(*vetoService)
	svc.now = fixedClock(testNow)
	return svc, matches, m.ID
}

func TestVetoService_OrderedLog(t *testing.T) {
	svc, _, id := newVetoFixture(t, models.MatchUpcoming)
	ctx := context.Background()

	steps := []RecordVetoInput{
		{MatchID: id, TeamID: 100, ActorID: captain1, Name: "Vinewood", Kind: models.VetoBan},
		{MatchID: id, TeamID: 101, ActorID: captain2, Name: " Sandy Shores ", Kind: models.VetoBan},
		{MatchID: id, TeamID: 100, ActorID: captain1, Name: "Del Perro", Kind: models.VetoPick},
	}
	for _, in := range steps {
		_, err := svc.RecordVeto(ctx, in)
		require.NoError(t, err)
	}

	log, err := svc.ListVeto(ctx, id)
	require.NoError(t, err)
	require.Len(t, log, 3)
	for i, e := range log {
		assert.Equal(t, i+1, e.Order)
		assert.Equal(t, testNow, e.CreatedAt)
	}
	assert.Equal(t, "Sandy Shores", log[1].Name)
	assert.Equal(t, models.VetoPick, log[2].Kind)
}

func TestVetoService_Rejections(t *testing.T) {
	svc, _, id := newVetoFixture(t, models.MatchInProgress)
	ctx := context.Background()
	_, err := svc.RecordVeto(ctx, RecordVetoInput{MatchID: id, TeamID: 100, ActorID: captain1, Name: "Vinewood", Kind: models.VetoBan})
	require.NoError(t, err)

	tests := []struct {
		name  string
		input RecordVetoInput
		want  error
	}{
		{"name reused", RecordVetoInput{MatchID: id, TeamID: 101, ActorID: captain2, Name: "vinewood", Kind: models.VetoPick}, ErrValidation},
		{"empty name", RecordVetoInput{MatchID: id, TeamID: 101, ActorID: captain2, Name: "  ", Kind: models.VetoBan}, ErrValidation},
		{"long name", RecordVetoInput{MatchID: id, TeamID: 101, ActorID: captain2, Name: strings.Repeat("x", MaxVetoNameLength+1), Kind: models.VetoBan}, ErrValidation},
		{"unknown kind", RecordVetoInput{MatchID: id, TeamID: 101, ActorID: captain2, Name: "Paleto", Kind: "skip"}, ErrValidation},
		{"foreign team", RecordVetoInput{MatchID: id, TeamID: 555, ActorID: captain2, Name: "Paleto", Kind: models.VetoBan}, ErrValidation},
		{"player not captain", RecordVetoInput{MatchID: id, TeamID: 100, ActorID: player1, Name: "Paleto", Kind: models.VetoBan}, ErrForbiddenOperation},
		{"captain of other team", RecordVetoInput{MatchID: id, TeamID: 101, ActorID: captain1, Name: "Paleto", Kind: models.VetoBan}, ErrForbiddenOperation},
		{"referee", RecordVetoInput{MatchID: id, TeamID: 100, ActorID: referee, Name: "Paleto", Kind: models.VetoBan}, ErrForbiddenOperation},
		{"unknown match", RecordVetoInput{MatchID: 404, TeamID: 100, ActorID: captain1, Name: "Paleto", Kind: models.VetoBan}, ErrMatchNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordVeto(ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	log, err := svc.ListVeto(ctx, id)
	require.NoError(t, err)
	assert.Len(t, log, 1)
}

func TestVetoService_ClosedAfterMatchEnds(t *testing.T) {
	for _, status := range []models.MatchStatus{models.MatchCompleted, models.MatchDisputed, models.MatchNullified} {
		t.Run(string(status), func(t *testing.T) {
			svc, _, id := newVetoFixture(t, status)
			_, err := svc.RecordVeto(context.Background(), RecordVetoInput{
				MatchID: id, TeamID: 100, ActorID: captain1, Name: "Vinewood", Kind: models.VetoBan,
			})
			assert.ErrorIs(t, err, ErrInvalidTransition)
		})
	}
}

func TestVetoService_NeedsBothTeams(t *testing.T) {
	svc, matches, _ := newVetoFixture(t, models.MatchUpcoming)
	m := &models.Match{TournamentID: testTournamentID, Round: 2, Slot: 0, Team1ID: intPtr(100), Status: models.MatchUpcoming}
	matches.insert(m)

	_, err := svc.RecordVeto(context.Background(), RecordVetoInput{
		MatchID: m.ID, TeamID: 100, ActorID: captain1, Name: "Vinewood", Kind: models.VetoBan,
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestVetoService_EmptyList(t *testing.T) {
	svc, _, id := newVetoFixture(t, models.MatchUpcoming)

	log, err := svc.ListVeto(context.Background(), id)
	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.Empty(t, log)

	_, err = svc.ListVeto(context.Background(), 404)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}
