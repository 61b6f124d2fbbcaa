package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/esports-arena/brackets"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidation          = errors.New("validation failed")
	ErrTiedScoreNotAllowed = errors.New("tied score cannot complete a match")
	ErrInsufficientTeams   = brackets.ErrInsufficientTeams

	// Переход не разрешён таблицей состояний
	ErrInvalidTransition = errors.New("match status transition not allowed")

	// Доказательства и чат
	ErrEvidenceWindowNotElapsed = errors.New("evidence upload window has not elapsed yet")
	ErrChatAccessDenied         = errors.New("chat access denied")
	ErrRateLimited              = errors.New("too many requests")
	ErrUploadDisabled           = errors.New("file upload is not configured")

	// Модерация
	ErrVerificationMismatch = errors.New("verification code mismatch")
	ErrVerificationExpired  error = verificationExpired{}
	ErrTargetImmune         = errors.New("target account is immune to moderation")

	// Ошибки аутентификации и авторизации
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")

	// Хранилище недоступно
	ErrUnavailable = errors.New("storage unavailable")

	// Ошибки, специфичные для сущностей (все являются ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("user: %w", ErrNotFound)
	ErrTeamNotFound       = fmt.Errorf("team: %w", ErrNotFound)
	ErrMatchNotFound      = fmt.Errorf("match: %w", ErrNotFound)
	ErrTournamentNotFound = fmt.Errorf("tournament: %w", ErrNotFound)
	ErrPendingNotFound    = fmt.Errorf("pending moderation action: %w", ErrNotFound)
	ErrSanctionNotFound   = fmt.Errorf("sanction: %w", ErrNotFound)
	ErrBracketNotFound    = fmt.Errorf("bracket: %w", ErrNotFound)
)

// verificationExpired - частный случай несовпадения кода.
type verificationExpired struct{}

func (verificationExpired) Error() string { return "verification code expired" }

func (verificationExpired) Is(target error) bool {
	return target == ErrVerificationMismatch
}
