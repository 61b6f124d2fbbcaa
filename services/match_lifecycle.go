package services

import (
	"fmt"

	"github.com/Dosada05/esports-arena/models"
)

type MatchAction string

const (
	ActionStart     MatchAction = "start"
	ActionScore     MatchAction = "score"
	ActionComplete  MatchAction = "complete"
	ActionDispute   MatchAction = "dispute"
	ActionReopen    MatchAction = "reopen"
	ActionReinstate MatchAction = "reinstate"
	ActionNullify   MatchAction = "nullify"
	ActionSchedule  MatchAction = "schedule"
)

type transitionKey struct {
	from   models.MatchStatus
	action MatchAction
}

// Таблица переходов. Отсутствие пары означает запрет.
var matchTransitions = map[transitionKey]models.MatchStatus{
	{models.MatchUpcoming, ActionStart}:    models.MatchInProgress,
	{models.MatchUpcoming, ActionNullify}:  models.MatchNullified,
	{models.MatchUpcoming, ActionSchedule}: models.MatchUpcoming,

	{models.MatchInProgress, ActionScore}:    models.MatchInProgress,
	{models.MatchInProgress, ActionComplete}: models.MatchCompleted,
	{models.MatchInProgress, ActionDispute}:  models.MatchDisputed,
	{models.MatchInProgress, ActionNullify}:  models.MatchNullified,
	{models.MatchInProgress, ActionSchedule}: models.MatchInProgress,

	{models.MatchCompleted, ActionDispute}: models.MatchDisputed,

	{models.MatchDisputed, ActionReopen}:    models.MatchInProgress,
	{models.MatchDisputed, ActionReinstate}: models.MatchCompleted,
	{models.MatchDisputed, ActionNullify}:   models.MatchNullified,
	{models.MatchDisputed, ActionSchedule}:  models.MatchDisputed,
}

// nextMatchStatus возвращает целевое состояние или ErrInvalidTransition.
func nextMatchStatus(from models.MatchStatus, action MatchAction) (models.MatchStatus, error) {
	to, ok := matchTransitions[transitionKey{from: from, action: action}]
	if !ok {
		return "", fmt.Errorf("%w: cannot %s a %s match", ErrInvalidTransition, action, from)
	}
	return to, nil
}
