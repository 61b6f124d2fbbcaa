package handlers

import (
	"net/http"
	"time"

	"github.com/Dosada05/esports-arena/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

type startMatchRequest struct {
	StartedAt *time.Time `json:"started_at"`
}

type scoreRequest struct {
	Score1 *int `json:"score1"`
	Score2 *int `json:"score2"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type scheduleRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
	MapName     *string    `json:"map_name"`
}

type refereeRequest struct {
	RefereeID int `json:"referee_id"`
}

// GetHandler обрабатывает GET /matches/{matchID}
func (h *MatchHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.GetMatch(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StartHandler обрабатывает POST /matches/{matchID}/start, тело необязательно.
func (h *MatchHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input startMatchRequest
	if err := readOptionalJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var startedAt time.Time
	if input.StartedAt != nil {
		startedAt = *input.StartedAt
	}
	match, err := h.matchService.StartMatch(r.Context(), id, startedAt)
	h.respondMatch(w, r, match, err)
}

func (h *MatchHandler) ScoreHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input scoreRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Score1 == nil || input.Score2 == nil {
		errorResponse(w, r, http.StatusUnprocessableEntity, "validation_failed", "score1 and score2 are required")
		return
	}
	match, err := h.matchService.UpdateScore(r.Context(), id, *input.Score1, *input.Score2)
	h.respondMatch(w, r, match, err)
}

func (h *MatchHandler) CompleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	result, err := h.matchService.CompleteMatch(r.Context(), id)
	h.respondResult(w, r, result, err)
}

func (h *MatchHandler) DisputeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input reasonRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.DisputeMatch(r.Context(), id, input.Reason)
	h.respondMatch(w, r, match, err)
}

func (h *MatchHandler) NullifyHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input reasonRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.NullifyMatch(r.Context(), id, input.Reason)
	h.respondMatch(w, r, match, err)
}

func (h *MatchHandler) ReopenHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.ReopenMatch(r.Context(), id)
	h.respondMatch(w, r, match, err)
}

func (h *MatchHandler) ReinstateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	result, err := h.matchService.ReinstateMatch(r.Context(), id)
	h.respondResult(w, r, result, err)
}

func (h *MatchHandler) ScheduleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input scheduleRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.ScheduleMatch(r.Context(), id, services.ScheduleMatchInput{
		ScheduledAt: input.ScheduledAt,
		MapName:     input.MapName,
	})
	h.respondMatch(w, r, match, err)
}

func (h *MatchHandler) RefereeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input refereeRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.AssignReferee(r.Context(), id, input.RefereeID)
	h.respondMatch(w, r, match, err)
}

func (h *MatchHandler) respondMatch(w http.ResponseWriter, r *http.Request, match interface{}, err error) {
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) respondResult(w http.ResponseWriter, r *http.Request, result *services.MatchResult, err error) {
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
