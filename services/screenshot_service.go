package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/Dosada05/esports-arena/models"
	"github.com/Dosada05/esports-arena/repositories"
	"github.com/Dosada05/esports-arena/storage"
)

const MaxScreenshotSize = 10 << 20 // 10 MiB

type ScreenshotService interface {
	EvidenceWindow(ctx context.Context, matchID int) (*EvidenceWindow, error)
	UploadScreenshot(ctx context.Context, input UploadScreenshotInput) (*models.Screenshot, error)
	UploadScreenshotFile(ctx context.Context, input UploadScreenshotFileInput) (*models.Screenshot, error)
	ListScreenshots(ctx context.Context, matchID int) ([]*models.Screenshot, error)
}

type UploadScreenshotInput struct {
	MatchID     int
	TeamID      int
	ActorID     int
	URL         string
	Description *string
}

type UploadScreenshotFileInput struct {
	MatchID     int
	TeamID      int
	ActorID     int
	ContentType string
	Size        int64
	Body        io.Reader
	Description *string
}

type screenshotService struct {
	matchRepo      repositories.MatchRepository
	teamRepo       repositories.TeamRepository
	screenshotRepo repositories.ScreenshotRepository
	uploader       storage.FileUploader
	minMinutes     int
	logger         *slog.Logger
	now            func() time.Time
}

// NewScreenshotService: uploader может быть nil, тогда загрузка файлов отключена.
func NewScreenshotService(
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	screenshotRepo repositories.ScreenshotRepository,
	uploader storage.FileUploader,
	minMinutes int,
	logger *slog.Logger,
) ScreenshotService {
	return &screenshotService{
		matchRepo:      matchRepo,
		teamRepo:       teamRepo,
		screenshotRepo: screenshotRepo,
		uploader:       uploader,
		minMinutes:     minMinutes,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *screenshotService) EvidenceWindow(ctx context.Context, matchID int) (*EvidenceWindow, error) {
	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError(err, "get match")
	}
	w := EvaluateEvidenceWindow(s.now(), m.StartedAt, s.minMinutes)
	return &w, nil
}

// checkGate проверяет, что команда играет в матче, загружающий состоит в ней
// (или судит матч) и окно уже открыто.
func (s *screenshotService) checkGate(ctx context.Context, matchID, teamID, actorID int) error {
	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return handleRepositoryError(err, "get match")
	}
	if _, ok := m.SideOf(teamID); !ok {
		return fmt.Errorf("%w: team %d does not play in match %d", ErrValidation, teamID, matchID)
	}
	if m.RefereeID == nil || *m.RefereeID != actorID {
		teams, err := s.teamRepo.GetByIDs(ctx, []int{teamID})
		if err != nil {
			return handleRepositoryError(err, "load team")
		}
		if !teams[teamID].HasMember(actorID) {
			return fmt.Errorf("%w: user %d is not a member of team %d", ErrForbiddenOperation, actorID, teamID)
		}
	}
	w := EvaluateEvidenceWindow(s.now(), m.StartedAt, s.minMinutes)
	if !w.CanUpload {
		return fmt.Errorf("%w: %s remaining", ErrEvidenceWindowNotElapsed, w.Remaining)
	}
	return nil
}

func (s *screenshotService) UploadScreenshot(ctx context.Context, input UploadScreenshotInput) (*models.Screenshot, error) {
	rawURL := strings.TrimSpace(input.URL)
	u, err := url.Parse(rawURL)
	if rawURL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: screenshot url must be an absolute http(s) URL", ErrValidation)
	}
	if err := s.checkGate(ctx, input.MatchID, input.TeamID, input.ActorID); err != nil {
		return nil, err
	}
	return s.create(ctx, input.MatchID, input.TeamID, rawURL, input.Description)
}

func (s *screenshotService) UploadScreenshotFile(ctx context.Context, input UploadScreenshotFileInput) (*models.Screenshot, error) {
	if s.uploader == nil {
		return nil, ErrUploadDisabled
	}
	if input.Size <= 0 || input.Size > MaxScreenshotSize {
		return nil, fmt.Errorf("%w: screenshot must be between 1 byte and %d bytes", ErrValidation, MaxScreenshotSize)
	}
	ext, err := GetExtensionFromContentType(input.ContentType)
	if err != nil {
		return nil, err
	}
	if err := s.checkGate(ctx, input.MatchID, input.TeamID, input.ActorID); err != nil {
		return nil, err
	}

	key := storage.ScreenshotKey(input.MatchID, input.TeamID, ext)
	uploaded, err := s.uploader.Upload(ctx, key, input.ContentType, input.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	shot, err := s.create(ctx, input.MatchID, input.TeamID, uploaded.Location, input.Description)
	if err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete orphaned screenshot object",
				slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, err
	}
	return shot, nil
}

func (s *screenshotService) create(ctx context.Context, matchID, teamID int, location string, description *string) (*models.Screenshot, error) {
	if description != nil {
		d := strings.TrimSpace(*description)
		if d == "" {
			description = nil
		} else {
			description = &d
		}
	}
	shot := &models.Screenshot{
		MatchID:     matchID,
		TeamID:      teamID,
		URL:         location,
		Description: description,
		UploadedAt:  s.now(),
	}
	if err := s.screenshotRepo.Create(ctx, shot); err != nil {
		return nil, handleRepositoryError(err, "create screenshot")
	}
	s.logger.InfoContext(ctx, "screenshot uploaded",
		slog.Int("match_id", matchID), slog.Int("team_id", teamID), slog.Int("screenshot_id", shot.ID))
	return shot, nil
}

func (s *screenshotService) ListScreenshots(ctx context.Context, matchID int) ([]*models.Screenshot, error) {
	shots, err := s.screenshotRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError(err, "list screenshots")
	}
	if shots == nil {
		return []*models.Screenshot{}, nil
	}
	return shots, nil
}
