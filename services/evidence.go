package services

import (
	"fmt"
	"time"
)

// EvidenceWindow - состояние окна загрузки доказательств для опроса клиентом.
type EvidenceWindow struct {
	CanUpload        bool    `json:"can_upload"`
	ElapsedSeconds   int64   `json:"elapsed_seconds"`
	RemainingSeconds int64   `json:"remaining_seconds"`
	ProgressPercent  float64 `json:"progress_percent"`
	Elapsed          string  `json:"elapsed"`
	Remaining        string  `json:"remaining"`
}

// EvaluateEvidenceWindow - чистая функция от (now, startedAt, minMinutes).
// Без startedAt загрузка запрещена. Отрицательное прошедшее время
// (рассинхрон часов) считается нулём; minMinutes <= 0 - окно всегда открыто.
func EvaluateEvidenceWindow(now time.Time, startedAt *time.Time, minMinutes int) EvidenceWindow {
	if startedAt == nil {
		return EvidenceWindow{Elapsed: formatMMSS(0), Remaining: formatMMSS(0)}
	}

	elapsed := int64(now.Sub(*startedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}

	required := int64(minMinutes) * 60
	if required <= 0 {
		return EvidenceWindow{
			CanUpload:       true,
			ElapsedSeconds:  elapsed,
			ProgressPercent: 100,
			Elapsed:         formatMMSS(elapsed),
			Remaining:       formatMMSS(0),
		}
	}

	remaining := required - elapsed
	if remaining < 0 {
		remaining = 0
	}
	progress := 100 * float64(elapsed) / float64(required)
	if progress > 100 {
		progress = 100
	}

	return EvidenceWindow{
		CanUpload:        elapsed >= required,
		ElapsedSeconds:   elapsed,
		RemainingSeconds: remaining,
		ProgressPercent:  progress,
		Elapsed:          formatMMSS(elapsed),
		Remaining:        formatMMSS(remaining),
	}
}

func formatMMSS(seconds int64) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
