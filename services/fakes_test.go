package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/esports-arena/models"
	"github.com/Dosada05/esports-arena/repositories"
	"github.com/Dosada05/esports-arena/storage"
	"github.com/google/uuid"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func intPtr(v int) *int { return &v }

// --- matches ---

type fakeMatchRepo struct {
	mu        sync.Mutex
	nextID    int
	matches   map[int]*models.Match
	champions map[int]int
	saveCalls int
	failSave  error
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{nextID: 1, matches: map[int]*models.Match{}, champions: map[int]int{}}
}

func (r *fakeMatchRepo) insert(m *models.Match) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == 0 {
		m.ID = r.nextID
		r.nextID++
	}
	r.matches[m.ID] = m.Clone()
}

func (r *fakeMatchRepo) get(id int) *models.Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.matches[id].Clone()
}

func (r *fakeMatchRepo) at(tournamentID, round, slot int) *models.Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.matches {
		if m.TournamentID == tournamentID && m.Round == round && m.Slot == slot {
			return m.Clone()
		}
	}
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return m.Clone(), nil
}

func (r *fakeMatchRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Match
	for _, m := range r.matches {
		if m.TournamentID == tournamentID {
			out = append(out, m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].Slot < out[j].Slot
	})
	return out, nil
}

func (r *fakeMatchRepo) Update(_ context.Context, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[m.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	r.matches[m.ID] = m.Clone()
	return nil
}

func (r *fakeMatchRepo) SaveResults(_ context.Context, tournamentID int, matches []*models.Match, championID *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveCalls++
	if r.failSave != nil {
		return r.failSave
	}
	for _, m := range matches {
		r.matches[m.ID] = m.Clone()
	}
	if championID != nil {
		r.champions[tournamentID] = *championID
	}
	return nil
}

// --- tournaments ---

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[int]*models.Tournament
	matchRepo   *fakeMatchRepo
}

func newFakeTournamentRepo(matchRepo *fakeMatchRepo, ts ...*models.Tournament) *fakeTournamentRepo {
	r := &fakeTournamentRepo{tournaments: map[int]*models.Tournament{}, matchRepo: matchRepo}
	for _, t := range ts {
		r.tournaments[t.ID] = t
	}
	return r
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	c := *t
	return &c, nil
}

func (r *fakeTournamentRepo) SaveBracket(_ context.Context, tournamentID int, roundCount int, matches []*models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[tournamentID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.RoundCount > 0 {
		return repositories.ErrBracketExists
	}
	t.RoundCount = roundCount
	t.Status = models.StatusActive
	t.RegistrationOpen = false
	for _, m := range matches {
		r.matchRepo.insert(m)
	}
	return nil
}

// --- teams & users ---

type fakeTeamRepo struct {
	registered map[int][]*models.Team
	teams      map[int]*models.Team
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{registered: map[int][]*models.Team{}, teams: map[int]*models.Team{}}
}

func (r *fakeTeamRepo) register(tournamentID int, teams ...*models.Team) {
	for _, t := range teams {
		r.registered[tournamentID] = append(r.registered[tournamentID], t)
		r.teams[t.ID] = t
	}
}

func (r *fakeTeamRepo) ListRegistered(_ context.Context, tournamentID int) ([]*models.Team, error) {
	return r.registered[tournamentID], nil
}

func (r *fakeTeamRepo) GetByIDs(_ context.Context, ids []int) (map[int]*models.Team, error) {
	out := make(map[int]*models.Team, len(ids))
	for _, id := range ids {
		if t, ok := r.teams[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users map[int]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[int]*models.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return u, nil
}

// --- evidence ---

type fakeScreenshotRepo struct {
	shots []*models.Screenshot
	fail  error
}

func (r *fakeScreenshotRepo) Create(_ context.Context, s *models.Screenshot) error {
	if r.fail != nil {
		return r.fail
	}
	s.ID = len(r.shots) + 1
	r.shots = append(r.shots, s)
	return nil
}

func (r *fakeScreenshotRepo) ListByMatch(_ context.Context, matchID int) ([]*models.Screenshot, error) {
	var out []*models.Screenshot
	for _, s := range r.shots {
		if s.MatchID == matchID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeChatRepo struct {
	messages []*models.ChatMessage
}

func (r *fakeChatRepo) Create(_ context.Context, msg *models.ChatMessage) error {
	msg.ID = len(r.messages) + 1
	r.messages = append(r.messages, msg)
	return nil
}

func (r *fakeChatRepo) ListByMatch(_ context.Context, matchID int) ([]*models.ChatMessage, error) {
	var out []*models.ChatMessage
	for _, m := range r.messages {
		if m.MatchID == matchID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeUploader struct {
	uploaded []string
	deleted  []string
	fail     error
}

func (u *fakeUploader) Upload(_ context.Context, key string, _ string, reader io.Reader) (*storage.UploadResult, error) {
	if u.fail != nil {
		return nil, u.fail
	}
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return nil, err
	}
	u.uploaded = append(u.uploaded, key)
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.gg/" + key
}

// --- moderation ---

type fakeModerationRepo struct {
	mu        sync.Mutex
	pending   map[uuid.UUID]*models.PendingAction
	sanctions map[int]*models.Sanction
	audit     []*models.AuditEntry
}

func newFakeModerationRepo() *fakeModerationRepo {
	return &fakeModerationRepo{pending: map[uuid.UUID]*models.PendingAction{}, sanctions: map[int]*models.Sanction{}}
}

func clonePending(p *models.PendingAction) *models.PendingAction {
	c := *p
	return &c
}

func (r *fakeModerationRepo) CreatePending(_ context.Context, p *models.PendingAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, old := range r.pending {
		if old.AdminID == p.AdminID && old.Status == models.PendingAwaiting {
			old.Status = models.PendingExpired
			old.ResolvedAt = &p.CreatedAt
		}
	}
	r.pending[p.ID] = clonePending(p)
	return nil
}

func (r *fakeModerationRepo) GetPending(_ context.Context, id uuid.UUID) (*models.PendingAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[id]
	if !ok {
		return nil, repositories.ErrPendingNotFound
	}
	return clonePending(p), nil
}

func (r *fakeModerationRepo) UpdatePending(_ context.Context, p *models.PendingAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pending[p.ID]; !ok {
		return repositories.ErrPendingNotFound
	}
	r.pending[p.ID] = clonePending(p)
	return nil
}

func (r *fakeModerationRepo) ExpireStale(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.pending {
		if p.Status == models.PendingAwaiting && !p.ExpiresAt.After(now) {
			p.Status = models.PendingExpired
			p.ResolvedAt = &now
			n++
		}
	}
	return n, nil
}

func (r *fakeModerationRepo) ApplyPending(_ context.Context, p *models.PendingAction, sanction *models.Sanction, audit *models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.pending[p.ID]
	if !ok || stored.Status != models.PendingAwaiting {
		return repositories.ErrPendingNotAwaiting
	}
	r.pending[p.ID] = clonePending(p)
	sanction.ID = len(r.sanctions) + 1
	s := *sanction
	r.sanctions[sanction.ID] = &s
	audit.ID = len(r.audit) + 1
	r.audit = append(r.audit, audit)
	return nil
}

func (r *fakeModerationRepo) GetSanction(_ context.Context, id int) (*models.Sanction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sanctions[id]
	if !ok {
		return nil, repositories.ErrSanctionNotFound
	}
	c := *s
	return &c, nil
}

func (r *fakeModerationRepo) ListSanctions(_ context.Context, filter repositories.SanctionFilter) ([]*models.Sanction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Sanction
	for id := 1; id <= len(r.sanctions); id++ {
		s := r.sanctions[id]
		if filter.UserID != nil && s.UserID != *filter.UserID {
			continue
		}
		if filter.Kind != nil && s.Kind != *filter.Kind {
			continue
		}
		if filter.ActiveOnly && !s.Active {
			continue
		}
		c := *s
		out = append(out, &c)
	}
	return out, nil
}

func (r *fakeModerationRepo) LiftSanction(_ context.Context, id int, audit *models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sanctions[id]
	if !ok || !s.Active {
		return repositories.ErrSanctionNotFound
	}
	s.Active = false
	r.audit = append(r.audit, audit)
	return nil
}

func (r *fakeModerationRepo) ListAudit(_ context.Context, limit int) ([]*models.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.AuditEntry, 0, len(r.audit))
	for i := len(r.audit) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.audit[i])
	}
	return out, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	codes map[uuid.UUID]string
	to    []string
	fail  error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{codes: map[uuid.UUID]string{}}
}

func (n *fakeNotifier) SendVerificationCode(_ context.Context, to string, action *models.PendingAction, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.to = append(n.to, to)
	n.codes[action.ID] = code
	return nil
}

func (n *fakeNotifier) code(id uuid.UUID) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[id]
}

var errStorageDown = errors.New("connection refused")
