package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Dosada05/esports-arena/middleware"
	"github.com/Dosada05/esports-arena/services"
)

const multipartOverhead = 1 << 20

// EvidenceHandler - скриншоты и чат матча.
type EvidenceHandler struct {
	screenshotService services.ScreenshotService
	chatService       services.ChatService
}

func NewEvidenceHandler(ss services.ScreenshotService, cs services.ChatService) *EvidenceHandler {
	return &EvidenceHandler{screenshotService: ss, chatService: cs}
}

type screenshotRequest struct {
	TeamID      int     `json:"team_id"`
	URL         string  `json:"url"`
	Description *string `json:"description"`
}

type chatRequest struct {
	Body string `json:"body"`
}

// WindowHandler обрабатывает GET /matches/{matchID}/evidence-window
func (h *EvidenceHandler) WindowHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	window, err := h.screenshotService.EvidenceWindow(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, window, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EvidenceHandler) ListScreenshotsHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	shots, err := h.screenshotService.ListScreenshots(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"screenshots": shots}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EvidenceHandler) UploadScreenshotHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to upload evidence")
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input screenshotRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	shot, err := h.screenshotService.UploadScreenshot(r.Context(), services.UploadScreenshotInput{
		MatchID:     matchID,
		TeamID:      input.TeamID,
		ActorID:     currentUserID,
		URL:         input.URL,
		Description: input.Description,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"screenshot": shot}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadScreenshotFileHandler обрабатывает multipart POST /matches/{matchID}/screenshots/file
// с полями team_id, description и файлом screenshot.
func (h *EvidenceHandler) UploadScreenshotFileHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to upload evidence")
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxScreenshotSize+multipartOverhead)
	if err := r.ParseMultipartForm(services.MaxScreenshotSize); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			errorResponse(w, r, http.StatusRequestEntityTooLarge, "too_large",
				fmt.Sprintf("screenshot must not be larger than %d bytes", services.MaxScreenshotSize))
			return
		}
		badRequestResponse(w, r, fmt.Errorf("invalid multipart form: %w", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	teamID, err := strconv.Atoi(r.FormValue("team_id"))
	if err != nil {
		badRequestResponse(w, r, errors.New("team_id form field must be an integer"))
		return
	}

	file, header, err := r.FormFile("screenshot")
	if err != nil {
		badRequestResponse(w, r, errors.New("screenshot file is required"))
		return
	}
	defer file.Close()

	contentType, body, err := sniffContentType(file, header.Header.Get("Content-Type"))
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var description *string
	if d := r.FormValue("description"); d != "" {
		description = &d
	}

	shot, err := h.screenshotService.UploadScreenshotFile(r.Context(), services.UploadScreenshotFileInput{
		MatchID:     matchID,
		TeamID:      teamID,
		ActorID:     currentUserID,
		ContentType: contentType,
		Size:        header.Size,
		Body:        body,
		Description: description,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"screenshot": shot}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// sniffContentType доверяет содержимому, а не заголовку клиента, если тот пуст
// или равен application/octet-stream.
func sniffContentType(file io.Reader, declared string) (string, io.Reader, error) {
	if declared != "" && declared != "application/octet-stream" {
		return declared, file, nil
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, fmt.Errorf("failed to read screenshot: %w", err)
	}
	head = head[:n]
	return http.DetectContentType(head), io.MultiReader(bytes.NewReader(head), file), nil
}

func (h *EvidenceHandler) ListChatHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	msgs, err := h.chatService.ListMessages(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"messages": msgs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EvidenceHandler) PostChatHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to post in match chat")
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input chatRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	msg, err := h.chatService.PostMessage(r.Context(), matchID, currentUserID, input.Body)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"message": msg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
