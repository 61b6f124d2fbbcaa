package services

import (
	"context"
	"testing"

	"github.com/Dosada05/esports-arena/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBracketService_Generate(t *testing.T) {
	f := newMatchFixture(t, 0)
	for i := 0; i < 5; i++ {
		f.teams.register(testTournamentID, &models.Team{ID: 100 + i, Name: "Team"})
	}

	view, err := f.brackets.GenerateBracket(context.Background(), testTournamentID)
	require.NoError(t, err)

	assert.Equal(t, 3, view.Tournament.RoundCount)
	assert.Equal(t, models.StatusActive, view.Tournament.Status)
	assert.False(t, view.Tournament.RegistrationOpen)
	require.Len(t, view.Rounds, 3)
	assert.Len(t, view.Rounds[0].Matches, 4)
	assert.Len(t, view.Rounds[1].Matches, 2)
	assert.Len(t, view.Rounds[2].Matches, 1)
	assert.Len(t, view.Teams, 5)

	stored, err := f.matches.ListByTournament(context.Background(), testTournamentID)
	require.NoError(t, err)
	assert.Len(t, stored, 7)
	for _, m := range stored {
		assert.NotZero(t, m.ID)
	}

	// bye+bye в слоте 3 первого раунда продвигает bye
	r1s3 := f.at(1, 3)
	assert.Equal(t, models.MatchCompleted, r1s3.Status)
	assert.Nil(t, r1s3.WinnerID)
	assert.True(t, f.at(2, 1).Team2Bye)
}

func TestBracketService_GenerateTwiceRejected(t *testing.T) {
	f := newMatchFixture(t, 4)

	_, err := f.brackets.GenerateBracket(context.Background(), testTournamentID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBracketService_GenerateErrors(t *testing.T) {
	f := newMatchFixture(t, 1)

	_, err := f.brackets.GenerateBracket(context.Background(), testTournamentID)
	assert.ErrorIs(t, err, ErrInsufficientTeams)

	_, err = f.brackets.GenerateBracket(context.Background(), 404)
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	for i := 1; i < 17; i++ {
		f.teams.register(testTournamentID, &models.Team{ID: 100 + i})
	}
	_, err = f.brackets.GenerateBracket(context.Background(), testTournamentID)
	assert.ErrorIs(t, err, ErrValidation, "17 teams exceed capacity 16")
}

func TestBracketService_GetBracketStyles(t *testing.T) {
	f := newMatchFixture(t, 4)
	ctx := context.Background()

	view, err := f.brackets.GetBracket(ctx, testTournamentID, "")
	require.NoError(t, err)
	assert.Nil(t, view.Skin)
	assert.Len(t, view.Rounds, 2)

	view, err = f.brackets.GetBracket(ctx, testTournamentID, "championship")
	require.NoError(t, err)
	require.NotNil(t, view.Skin)
	assert.Equal(t, "championship", view.Skin.Style)
	assert.Equal(t, "Final", view.Skin.Columns[1].Title)

	_, err = f.brackets.GetBracket(ctx, testTournamentID, "vaporwave")
	assert.ErrorIs(t, err, ErrValidation)

	f.tournaments.tournaments[testTournamentID].BracketStyle = "minimal"
	view, err = f.brackets.GetBracket(ctx, testTournamentID, "")
	require.NoError(t, err)
	require.NotNil(t, view.Skin)
	assert.Equal(t, "minimal", view.Skin.Style)
}

func TestBracketService_WithdrawTeam(t *testing.T) {
	f := newMatchFixture(t, 4)
	ctx := context.Background()
	semi := f.at(1, 0)

	_, err := f.brackets.WithdrawTeam(ctx, semi.ID, 999)
	assert.ErrorIs(t, err, ErrValidation)

	res, err := f.brackets.WithdrawTeam(ctx, semi.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, models.MatchCompleted, res.Match.Status)
	assert.True(t, res.Match.Walkover)
	assert.Equal(t, 101, *res.Match.WinnerID)
	require.Len(t, res.Advanced, 1)

	final := f.at(2, 0)
	assert.Equal(t, 101, *final.Team1ID)

	_, err = f.brackets.WithdrawTeam(ctx, semi.ID, 101)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBracketService_WithdrawFromFinalDecidesChampion(t *testing.T) {
	f := newMatchFixture(t, 2)

	res, err := f.brackets.WithdrawTeam(context.Background(), f.at(1, 0).ID, 101)
	require.NoError(t, err)
	require.NotNil(t, res.ChampionTeamID)
	assert.Equal(t, 100, *res.ChampionTeamID)
	assert.Equal(t, 100, f.matches.champions[testTournamentID])
}
