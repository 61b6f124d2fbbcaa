package brackets

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/Dosada05/esports-arena/models"
	"gopkg.in/yaml.v3"
)

// DefaultSkin предлагается клиентам, когда у турнира ещё не выбран стиль.
const DefaultSkin = "esports"

var ErrUnknownSkin = errors.New("unknown bracket style")

//go:embed skins.yaml
var skinCatalogue []byte

type Palette struct {
	Primary   string `yaml:"primary" json:"primary"`
	Secondary string `yaml:"secondary" json:"secondary"`
	Accent    string `yaml:"accent" json:"accent"`
}

type SkinInfo struct {
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	Colors      Palette `yaml:"colors" json:"colors"`
}

type Card struct {
	MatchID   int                `json:"match_id"`
	Slot      int                `json:"slot"`
	Team1     string             `json:"team1"`
	Team2     string             `json:"team2"`
	Score     string             `json:"score"`
	Status    models.MatchStatus `json:"status"`
	Winner    string             `json:"winner,omitempty"`
	Highlight bool               `json:"highlight"`
}

type Column struct {
	Round int    `json:"round"`
	Title string `json:"title"`
	Cards []Card `json:"cards"`
}

// SkinView - готовая к отрисовке модель сетки.
type SkinView struct {
	Style    string   `json:"style"`
	Name     string   `json:"name"`
	Palette  Palette  `json:"palette"`
	Columns  []Column `json:"columns"`
	Champion string   `json:"champion,omitempty"`
}

// Skin - визуальная тема сетки. Темы только читают данные движка.
type Skin interface {
	Name() string
	Render(t *models.Tournament, rounds []models.Round, teams map[int]*models.Team) SkinView
}

var (
	skinsOnce sync.Once
	skins     map[string]Skin
	skinOrder []string
	skinsErr  error
)

func loadSkins() {
	var infos []SkinInfo
	if err := yaml.Unmarshal(skinCatalogue, &infos); err != nil {
		skinsErr = fmt.Errorf("failed to parse skin catalogue: %w", err)
		return
	}
	byID := make(map[string]SkinInfo, len(infos))
	for _, info := range infos {
		byID[info.ID] = info
	}

	skins = make(map[string]Skin)
	register := func(s Skin) {
		skins[s.Name()] = s
		skinOrder = append(skinOrder, s.Name())
	}
	register(&esportsSkin{info: byID["esports"]})
	register(&cyberpunkSkin{info: byID["cyberpunk"]})
	register(&minimalSkin{info: byID["minimal"]})
	register(&championshipSkin{info: byID["championship"]})
	sort.Strings(skinOrder)
}

// SkinByName возвращает тему по идентификатору.
func SkinByName(name string) (Skin, error) {
	skinsOnce.Do(loadSkins)
	if skinsErr != nil {
		return nil, skinsErr
	}
	s, ok := skins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSkin, name)
	}
	return s, nil
}

// SkinNames - отсортированный список доступных тем.
func SkinNames() []string {
	skinsOnce.Do(loadSkins)
	out := make([]string, len(skinOrder))
	copy(out, skinOrder)
	return out
}

type esportsSkin struct{ info SkinInfo }

func (s *esportsSkin) Name() string { return "esports" }

func (s *esportsSkin) Render(t *models.Tournament, rounds []models.Round, teams map[int]*models.Team) SkinView {
	return layout(s.info, rounds, teams,
		func(round, total int) string {
			if round == total {
				return "Grand Final"
			}
			return "Round " + strconv.Itoa(round)
		},
		func(m *models.Match) bool { return m.Status == models.MatchInProgress },
	)
}

type cyberpunkSkin struct{ info SkinInfo }

func (s *cyberpunkSkin) Name() string { return "cyberpunk" }

func (s *cyberpunkSkin) Render(t *models.Tournament, rounds []models.Round, teams map[int]*models.Team) SkinView {
	return layout(s.info, rounds, teams,
		func(round, total int) string {
			if round == total {
				return "FINAL"
			}
			return fmt.Sprintf("STAGE %02d", round)
		},
		func(m *models.Match) bool { return m.Status == models.MatchDisputed },
	)
}

type minimalSkin struct{ info SkinInfo }

func (s *minimalSkin) Name() string { return "minimal" }

func (s *minimalSkin) Render(t *models.Tournament, rounds []models.Round, teams map[int]*models.Team) SkinView {
	return layout(s.info, rounds, teams,
		func(round, _ int) string { return "R" + strconv.Itoa(round) },
		func(*models.Match) bool { return false },
	)
}

type championshipSkin struct{ info SkinInfo }

func (s *championshipSkin) Name() string { return "championship" }

func (s *championshipSkin) Render(t *models.Tournament, rounds []models.Round, teams map[int]*models.Team) SkinView {
	view := layout(s.info, rounds, teams,
		func(round, total int) string {
			switch total - round {
			case 0:
				return "Final"
			case 1:
				return "Semifinals"
			case 2:
				return "Quarterfinals"
			default:
				return "Round of " + strconv.Itoa(1<<uint(total-round+1))
			}
		},
		func(m *models.Match) bool {
			return m.Status == models.MatchCompleted && !m.Walkover
		},
	)
	if t != nil && t.ChampionTeamID != nil {
		view.Champion = teamLabel(teams, t.ChampionTeamID, false)
	}
	return view
}

func layout(info SkinInfo, rounds []models.Round, teams map[int]*models.Team, title func(round, total int) string, highlight func(*models.Match) bool) SkinView {
	total := len(rounds)
	view := SkinView{
		Style:   info.ID,
		Name:    info.Name,
		Palette: info.Colors,
		Columns: make([]Column, 0, total),
	}
	for _, r := range rounds {
		col := Column{Round: r.Index, Title: title(r.Index, total), Cards: make([]Card, 0, len(r.Matches))}
		for _, m := range r.Matches {
			card := Card{
				MatchID:   m.ID,
				Slot:      m.Slot,
				Team1:     teamLabel(teams, m.Team1ID, m.Team1Bye),
				Team2:     teamLabel(teams, m.Team2ID, m.Team2Bye),
				Status:    m.Status,
				Highlight: highlight(m),
			}
			if !m.Walkover && m.Status != models.MatchUpcoming {
				card.Score = fmt.Sprintf("%d : %d", m.Score1, m.Score2)
			}
			if m.WinnerID != nil {
				card.Winner = teamLabel(teams, m.WinnerID, false)
			}
			col.Cards = append(col.Cards, card)
		}
		view.Columns = append(view.Columns, col)
	}
	return view
}

func teamLabel(teams map[int]*models.Team, id *int, bye bool) string {
	switch {
	case bye:
		return "BYE"
	case id == nil:
		return "TBD"
	}
	if t, ok := teams[*id]; ok && t.Name != "" {
		return t.Name
	}
	return "Team #" + strconv.Itoa(*id)
}
