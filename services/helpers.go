// File: esports-arena/services/helpers.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/esports-arena/brackets"
	"github.com/Dosada05/esports-arena/repositories"
)

// --- Общие хелперы ---

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

// handleRepositoryError переводит ошибки репозиториев в ошибки сервисов.
// Всё, что не является "не найдено" или конфликтом, считается недоступностью хранилища.
func handleRepositoryError(err error, op string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrPendingNotFound):
		return ErrPendingNotFound
	case errors.Is(err, repositories.ErrSanctionNotFound):
		return ErrSanctionNotFound
	case errors.Is(err, repositories.ErrBracketExists), errors.Is(err, repositories.ErrPendingNotAwaiting):
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	case errors.Is(err, repositories.ErrMatchInvalidReferee):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	case errors.Is(err, repositories.ErrScreenshotInvalidRef), errors.Is(err, repositories.ErrVetoNameTaken):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	case errors.Is(err, repositories.ErrVetoOrderTaken):
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

// mapBracketError переводит ошибки движка сетки в таксономию сервисов.
func mapBracketError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, brackets.ErrInsufficientTeams):
		return err
	case errors.Is(err, brackets.ErrCapacityExceeded), errors.Is(err, brackets.ErrDuplicateTeam),
		errors.Is(err, brackets.ErrTeamNotInMatch):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	case errors.Is(err, brackets.ErrInvalidTransition), errors.Is(err, brackets.ErrInvalidTopology):
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	return err
}

func requireReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", fmt.Errorf("%w: reason is required", ErrValidation)
	}
	return reason, nil
}

func matchLockKey(tournamentID, round, slot int) string {
	return fmt.Sprintf("match:%d:%d:%d", tournamentID, round, slot)
}

func pathLockKeys(tournamentID, round, slot, roundCount int) []string {
	path := brackets.Path(round, slot, roundCount)
	keys := make([]string, len(path))
	for i, a := range path {
		keys[i] = matchLockKey(tournamentID, a.Round, a.Slot)
	}
	return keys
}

func tournamentLockKey(id int) string {
	return fmt.Sprintf("tournament:%d", id)
}

// GetExtensionFromContentType (из services/user_service.go, можно сделать общим)
func GetExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	}
	return "", fmt.Errorf("%w: unsupported screenshot content type %q", ErrValidation, contentType)
}
