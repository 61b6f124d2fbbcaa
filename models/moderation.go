package models

import (
	"time"

	"github.com/google/uuid"
)

type ActionKind string

const (
	ActionBan     ActionKind = "ban"
	ActionMute    ActionKind = "mute"
	ActionSuspend ActionKind = "suspend"
)

func (k ActionKind) Valid() bool {
	return k == ActionBan || k == ActionMute || k == ActionSuspend
}

type PendingStatus string

const (
	PendingAwaiting PendingStatus = "pending"
	PendingApplied  PendingStatus = "applied"
	PendingExpired  PendingStatus = "expired"
)

// PendingAction - предложенное действие модерации, ожидающее кода из письма.
type PendingAction struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	AdminID      int           `json:"admin_id" db:"admin_id"`
	TargetUserID int           `json:"target_user_id" db:"target_user_id"`
	Kind         ActionKind    `json:"kind" db:"kind"`
	DurationDays *int          `json:"duration_days,omitempty" db:"duration_days"`
	Reason       string        `json:"reason" db:"reason"`
	TournamentID *int          `json:"tournament_id,omitempty" db:"tournament_id"`
	CodeHash     string        `json:"-" db:"code_hash"`
	Status       PendingStatus `json:"status" db:"status"`
	Attempts     int           `json:"attempts" db:"attempts"`
	ExpiresAt    time.Time     `json:"expires_at" db:"expires_at"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	ResolvedAt   *time.Time    `json:"resolved_at,omitempty" db:"resolved_at"`
}

// Forever - бессрочное действие.
func (p *PendingAction) Forever() bool {
	return p.DurationDays == nil
}

// Sanction - применённый эффект модерации.
type Sanction struct {
	ID           int        `json:"id" db:"id"`
	UserID       int        `json:"user_id" db:"user_id"`
	Kind         ActionKind `json:"kind" db:"kind"`
	Reason       string     `json:"reason" db:"reason"`
	IssuedBy     int        `json:"issued_by" db:"issued_by"`
	TournamentID *int       `json:"tournament_id,omitempty" db:"tournament_id"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	Active       bool       `json:"active" db:"active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// EffectiveAt - санкция действует: не снята и не истекла.
func (s *Sanction) EffectiveAt(now time.Time) bool {
	if !s.Active {
		return false
	}
	return s.ExpiresAt == nil || now.Before(*s.ExpiresAt)
}

type AuditEntry struct {
	ID           int       `json:"id" db:"id"`
	AdminID      int       `json:"admin_id" db:"admin_id"`
	TargetUserID int       `json:"target_user_id" db:"target_user_id"`
	Action       string    `json:"action" db:"action"`
	Reason       string    `json:"reason" db:"reason"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
