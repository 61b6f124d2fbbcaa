package handlers

import (
	"net/http"

	"github.com/Dosada05/esports-arena/middleware"
	"github.com/Dosada05/esports-arena/models"
	"github.com/Dosada05/esports-arena/services"
)

type VetoHandler struct {
	vetoService services.VetoService
}

func NewVetoHandler(vs services.VetoService) *VetoHandler {
	return &VetoHandler{vetoService: vs}
}

type vetoRequest struct {
	TeamID int             `json:"team_id"`
	Name   string          `json:"name"`
	Kind   models.VetoKind `json:"kind"`
}

// ListHandler обрабатывает GET /matches/{matchID}/veto
func (h *VetoHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	entries, err := h.vetoService.ListVeto(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"veto": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecordHandler обрабатывает POST /matches/{matchID}/veto
func (h *VetoHandler) RecordHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to ban or pick")
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input vetoRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entry, err := h.vetoService.RecordVeto(r.Context(), services.RecordVetoInput{
		MatchID: matchID,
		TeamID:  input.TeamID,
		ActorID: currentUserID,
		Name:    input.Name,
		Kind:    input.Kind,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"veto": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
