package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/esports-arena/middleware"
	"github.com/Dosada05/esports-arena/models"
	"github.com/Dosada05/esports-arena/repositories"
	"github.com/Dosada05/esports-arena/services"
)

type ModerationHandler struct {
	moderationService services.ModerationService
}

func NewModerationHandler(ms services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: ms}
}

type proposeRequest struct {
	TargetUserID int               `json:"target_user_id"`
	Kind         models.ActionKind `json:"kind"`
	DurationDays *int              `json:"duration_days"`
	Forever      bool              `json:"forever"`
	Reason       string            `json:"reason"`
	TournamentID *int              `json:"tournament_id"`
}

type confirmRequest struct {
	Code string `json:"code"`
}

// ProposeHandler обрабатывает POST /moderation/actions
func (h *ModerationHandler) ProposeHandler(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	var input proposeRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	pending, err := h.moderationService.ProposeAction(r.Context(), adminID, services.ProposeActionInput{
		TargetUserID: input.TargetUserID,
		Kind:         input.Kind,
		DurationDays: input.DurationDays,
		Forever:      input.Forever,
		Reason:       input.Reason,
		TournamentID: input.TournamentID,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusAccepted, jsonResponse{"pending": pending}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ConfirmHandler обрабатывает POST /moderation/actions/{pendingID}/confirm.
// При неверном коде отдаёт 422 вместе с результатом (applied=false, attempts_left).
func (h *ModerationHandler) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	pendingID, err := getUUIDFromURL(r, "pendingID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input confirmRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.moderationService.ConfirmAction(r.Context(), adminID, pendingID, input.Code)
	if err != nil {
		if result != nil && errors.Is(err, services.ErrVerificationMismatch) {
			env := jsonResponse{"error": err.Error(), "code": "verification_mismatch", "result": result}
			if werr := writeJSON(w, http.StatusUnprocessableEntity, env, nil); werr != nil {
				serverErrorResponse(w, r, werr)
			}
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListSanctionsHandler обрабатывает GET /moderation/sanctions?user_id=&kind=&active=&limit=
func (h *ModerationHandler) ListSanctionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt(r, "user_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	filter := repositories.SanctionFilter{UserID: userID, ActiveOnly: r.URL.Query().Get("active") == "true"}
	if kind := r.URL.Query().Get("kind"); kind != "" {
		k := models.ActionKind(kind)
		filter.Kind = &k
	}
	if limit != nil {
		filter.Limit = *limit
	}

	sanctions, err := h.moderationService.ListSanctions(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"sanctions": sanctions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// LiftHandler обрабатывает DELETE /moderation/sanctions/{sanctionID}
func (h *ModerationHandler) LiftHandler(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	sanctionID, err := getIDFromURL(r, "sanctionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input reasonRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.moderationService.LiftSanction(r.Context(), adminID, sanctionID, input.Reason); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AuditHandler обрабатывает GET /moderation/audit?limit=
func (h *ModerationHandler) AuditHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	n := 0
	if limit != nil {
		n = *limit
	}
	entries, err := h.moderationService.AuditLog(r.Context(), n)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"audit": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
