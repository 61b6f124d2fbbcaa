package brackets

import (
	"testing"

	"github.com/Dosada05/esports-arena/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func complete(m *models.Match, winner int) {
	m.Status = models.MatchCompleted
	m.WinnerID = &winner
}

func TestAdvance_WritesWinnerIntoSuccessorSide(t *testing.T) {
	b := generate(t, 8)

	for slot := 0; slot < 4; slot++ {
		m := b.At(1, slot)
		complete(m, *m.Team1ID)

		changes, err := b.Advance(m, testNow)
		require.NoError(t, err)

		next := b.At(2, slot/2)
		side := SideForSlot(slot)
		require.NotNil(t, next.Team(side))
		assert.Equal(t, *m.Team1ID, *next.Team(side))
		assert.Equal(t, []*models.Match{next}, changes.Matches())
	}

	for slot := 0; slot < 2; slot++ {
		m := b.At(2, slot)
		assert.NotNil(t, m.Team1ID)
		assert.NotNil(t, m.Team2ID)
		assert.Equal(t, models.MatchUpcoming, m.Status)
	}
}

func TestAdvance_RecursesThroughByes(t *testing.T) {
	b := generate(t, 5)

	m := b.At(1, 0)
	complete(m, *m.Team2ID)
	_, err := b.Advance(m, testNow)
	require.NoError(t, err)

	semi := b.At(2, 0)
	assert.Equal(t, 101, *semi.Team1ID)
	assert.Nil(t, semi.Team2ID)
	assert.Equal(t, models.MatchUpcoming, semi.Status)

	m = b.At(1, 1)
	complete(m, *m.Team1ID)
	changes, err := b.Advance(m, testNow)
	require.NoError(t, err)
	assert.Len(t, changes.Matches(), 1)
	assert.Equal(t, 102, *semi.Team2ID)

	complete(semi, 102)
	changes, err = b.Advance(semi, testNow)
	require.NoError(t, err)

	final := b.At(3, 0)
	assert.Equal(t, 102, *final.Team1ID)
	assert.Equal(t, 104, *final.Team2ID)
	assert.Nil(t, changes.Champion(b))
}

func TestAdvance_Rejects(t *testing.T) {
	b := generate(t, 4)

	_, err := b.Advance(b.At(1, 0), testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition, "match is not completed")

	final := b.At(2, 0)
	final.Status = models.MatchCompleted
	_, err = b.Advance(final, testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition, "final has no successor")

	foreign := &models.Match{Round: 1, Slot: 0, Status: models.MatchCompleted}
	_, err = b.Advance(foreign, testNow)
	assert.ErrorIs(t, err, ErrInvalidTopology)

	m := b.At(1, 1)
	complete(m, *m.Team1ID)
	_, err = b.Advance(m, testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition, "successor already completed")
}

func TestAdvance_DoubleAdvanceRejected(t *testing.T) {
	b := generate(t, 4)
	m := b.At(1, 0)
	complete(m, *m.Team1ID)

	_, err := b.Advance(m, testNow)
	require.NoError(t, err)
	_, err = b.Advance(m, testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestWithdraw(t *testing.T) {
	b := generate(t, 4)
	m := b.At(1, 0)

	changes, err := b.Withdraw(m, 100, testNow)
	require.NoError(t, err)

	assert.True(t, m.Team1Bye)
	assert.Nil(t, m.Team1ID)
	assert.Equal(t, models.MatchCompleted, m.Status)
	assert.True(t, m.Walkover)
	require.NotNil(t, m.WinnerID)
	assert.Equal(t, 101, *m.WinnerID)

	final := b.At(2, 0)
	assert.Equal(t, 101, *final.Team1ID)
	assert.ElementsMatch(t, []*models.Match{m, final}, changes.Matches())
}

func TestWithdraw_Rejects(t *testing.T) {
	b := generate(t, 4)

	_, err := b.Withdraw(b.At(1, 0), 999, testNow)
	assert.ErrorIs(t, err, ErrTeamNotInMatch)

	m := b.At(1, 1)
	m.Status = models.MatchInProgress
	_, err = b.Withdraw(m, *m.Team1ID, testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestChangesChampion(t *testing.T) {
	b := generate(t, 3)

	// команда 102 получила bye, команда 100 снимается: 101 проходит в финал
	_, err := b.Withdraw(b.At(1, 0), 100, testNow)
	require.NoError(t, err)

	final := b.At(2, 0)
	require.NotNil(t, final.Team1ID)
	require.NotNil(t, final.Team2ID)

	changes, err := b.Withdraw(final, *final.Team2ID, testNow)
	require.NoError(t, err)
	champion := changes.Champion(b)
	require.NotNil(t, champion)
	assert.Equal(t, 101, *champion)
}

func TestAdvance_StopsAtNullifiedSuccessor(t *testing.T) {
	b := generate(t, 4)
	final := b.At(2, 0)
	final.Status = models.MatchNullified

	m := b.At(1, 0)
	complete(m, *m.Team1ID)
	changes, err := b.Advance(m, testNow)
	require.NoError(t, err)

	assert.Empty(t, changes.Matches())
	assert.Nil(t, final.Team1ID)
	assert.Equal(t, models.MatchNullified, final.Status)
}
