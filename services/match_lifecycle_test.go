package services

import (
	"testing"

	"github.com/Dosada05/esports-arena/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextMatchStatus(t *testing.T) {
	tests := []struct {
		from   models.MatchStatus
		action MatchAction
		want   models.MatchStatus
	}{
		{models.MatchUpcoming, ActionStart, models.MatchInProgress},
		{models.MatchUpcoming, ActionNullify, models.MatchNullified},
		{models.MatchUpcoming, ActionSchedule, models.MatchUpcoming},
		{models.MatchInProgress, ActionScore, models.MatchInProgress},
		{models.MatchInProgress, ActionComplete, models.MatchCompleted},
		{models.MatchInProgress, ActionDispute, models.MatchDisputed},
		{models.MatchInProgress, ActionNullify, models.MatchNullified},
		{models.MatchCompleted, ActionDispute, models.MatchDisputed},
		{models.MatchDisputed, ActionReopen, models.MatchInProgress},
		{models.MatchDisputed, ActionReinstate, models.MatchCompleted},
		{models.MatchDisputed, ActionNullify, models.MatchNullified},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.action), func(t *testing.T) {
			got, err := nextMatchStatus(tt.from, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextMatchStatus_Rejected(t *testing.T) {
	tests := []struct {
		from   models.MatchStatus
		action MatchAction
	}{
		{models.MatchUpcoming, ActionComplete},
		{models.MatchUpcoming, ActionScore},
		{models.MatchUpcoming, ActionDispute},
		{models.MatchInProgress, ActionStart},
		{models.MatchCompleted, ActionComplete},
		{models.MatchCompleted, ActionNullify},
		{models.MatchCompleted, ActionScore},
		{models.MatchCompleted, ActionSchedule},
		{models.MatchDisputed, ActionComplete},
		{models.MatchNullified, ActionStart},
		{models.MatchNullified, ActionDispute},
		{models.MatchNullified, ActionSchedule},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.action), func(t *testing.T) {
			_, err := nextMatchStatus(tt.from, tt.action)
			assert.ErrorIs(t, err, ErrInvalidTransition)
		})
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for key := range matchTransitions {
		if key.from == models.MatchNullified {
			t.Errorf("nullified match must not transition, found %s", key.action)
		}
	}
}
