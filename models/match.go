package models

import "time"

// MatchStatus - закрытый набор состояний матча, соответствует ENUM match_status в БД.
type MatchStatus string

const (
	MatchUpcoming   MatchStatus = "upcoming"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
	MatchDisputed   MatchStatus = "disputed"
	MatchNullified  MatchStatus = "nullified"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchUpcoming, MatchInProgress, MatchCompleted, MatchDisputed, MatchNullified:
		return true
	}
	return false
}

// Terminal сообщает, что из состояния нет обычных переходов.
func (s MatchStatus) Terminal() bool {
	return s == MatchCompleted || s == MatchNullified
}

// Side - сторона матча (1 или 2).
type Side int

const (
	Side1 Side = 1
	Side2 Side = 2
)

func (s Side) Opposite() Side {
	if s == Side1 {
		return Side2
	}
	return Side1
}

type Match struct {
	ID           int `json:"id" db:"id"`
	TournamentID int `json:"tournament_id" db:"tournament_id"`
	Round        int `json:"round" db:"round"`
	Slot         int `json:"slot" db:"slot"`

	Team1ID  *int `json:"team1_id" db:"team1_id"`
	Team2ID  *int `json:"team2_id" db:"team2_id"`
	Team1Bye bool `json:"team1_bye" db:"team1_bye"`
	Team2Bye bool `json:"team2_bye" db:"team2_bye"`

	Score1   int         `json:"score1" db:"score1"`
	Score2   int         `json:"score2" db:"score2"`
	Status   MatchStatus `json:"status" db:"status"`
	WinnerID *int        `json:"winner_id,omitempty" db:"winner_id"`
	Walkover bool        `json:"walkover" db:"walkover"`

	RefereeID   *int       `json:"referee_id,omitempty" db:"referee_id"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty" db:"scheduled_at"`
	MapName     *string    `json:"map_name,omitempty" db:"map_name"`

	StartedAt     *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	DisputeReason *string    `json:"dispute_reason,omitempty" db:"dispute_reason"`
	NullifyReason *string    `json:"nullify_reason,omitempty" db:"nullify_reason"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

func (m *Match) Team(side Side) *int {
	if side == Side1 {
		return m.Team1ID
	}
	return m.Team2ID
}

func (m *Match) SetTeam(side Side, teamID *int) {
	if side == Side1 {
		m.Team1ID = teamID
	} else {
		m.Team2ID = teamID
	}
}

func (m *Match) IsBye(side Side) bool {
	if side == Side1 {
		return m.Team1Bye
	}
	return m.Team2Bye
}

func (m *Match) SetBye(side Side, bye bool) {
	if side == Side1 {
		m.Team1Bye = bye
	} else {
		m.Team2Bye = bye
	}
}

// SideOf возвращает сторону, на которой играет команда.
func (m *Match) SideOf(teamID int) (Side, bool) {
	if m.Team1ID != nil && *m.Team1ID == teamID {
		return Side1, true
	}
	if m.Team2ID != nil && *m.Team2ID == teamID {
		return Side2, true
	}
	return 0, false
}

// Ready - обе стороны заняты реальными командами.
func (m *Match) Ready() bool {
	return m.Team1ID != nil && m.Team2ID != nil
}

// Clone делает глубокую копию, чтобы изменения до коммита не утекали в общий снимок.
func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	c := *m
	c.Team1ID = cloneInt(m.Team1ID)
	c.Team2ID = cloneInt(m.Team2ID)
	c.WinnerID = cloneInt(m.WinnerID)
	c.RefereeID = cloneInt(m.RefereeID)
	c.ScheduledAt = cloneTime(m.ScheduledAt)
	c.StartedAt = cloneTime(m.StartedAt)
	c.CompletedAt = cloneTime(m.CompletedAt)
	c.MapName = cloneString(m.MapName)
	c.DisputeReason = cloneString(m.DisputeReason)
	c.NullifyReason = cloneString(m.NullifyReason)
	return &c
}

// Round - колонка сетки.
type Round struct {
	Index   int      `json:"round"`
	Matches []*Match `json:"matches"`
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
