package bracket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/codequest-hq/tournament-engine/models"
)

// ChallongeConfig - явная конфигурация клиента, передаётся при
// конструировании. Никакого глобального мутабельного состояния.
type ChallongeConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type challongeClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewChallongeClient создаёт клиент к Challonge v2 API.
func NewChallongeClient(cfg ChallongeConfig) (Client, error) {
	if cfg.BaseURL == "" || cfg.APIKey == "" {
		return nil, errors.New("invalid challonge configuration: base URL and API key are required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &challongeClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/") + "/",
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Обёртка JSON:API, в которую Challonge заворачивает все тела запросов.
type requestEnvelope struct {
	Data requestData `json:"data"`
}

type requestData struct {
	Type       string      `json:"type"`
	Attributes interface{} `json:"attributes"`
}

func (c *challongeClient) CreateTournament(ctx context.Context, t *models.Tournament, isPrivate bool) error {
	var challongeType string
	switch t.Style {
	case models.StyleSingleElimination:
		challongeType = "single elimination"
	case models.StyleDoubleElimination:
		challongeType = "double elimination"
	default:
		return fmt.Errorf("unsupported tournament style %q", t.Style)
	}

	name := t.NameLong
	if isPrivate {
		name += " (Private)"
	}

	payload := requestEnvelope{Data: requestData{
		Type: "tournaments",
		Attributes: map[string]interface{}{
			"name":            name,
			"tournament_type": challongeType,
			"private":         isPrivate,
			"url":             t.BracketID(isPrivate),
		},
	}}

	return c.do(ctx, "create_tournament", http.MethodPost, "tournaments.json", payload, nil)
}

func (c *challongeClient) BulkAddParticipants(ctx context.Context, t *models.Tournament, teams []*models.Team, isPrivate bool) error {
	type challongeParticipant struct {
		Name string `json:"name"`
		Seed int    `json:"seed"`
		Misc string `json:"misc"`
	}

	// Провайдер нумерует посев с единицы; порядок входного списка - это
	// и есть порядок посева, сортировка по рейтингу - забота вызывающего.
	participants := make([]challongeParticipant, 0, len(teams))
	for idx, team := range teams {
		if team.ActiveSubmissionID == nil {
			return fmt.Errorf("team %d (%s) has no active submission to seed", team.ID, team.Name)
		}
		misc, err := encodeSeedPayload(SeedPayload{
			TeamID:       team.ID,
			SubmissionID: *team.ActiveSubmissionID,
		})
		if err != nil {
			return err
		}
		participants = append(participants, challongeParticipant{
			Name: team.Name,
			Seed: idx + 1,
			Misc: misc,
		})
	}

	payload := requestEnvelope{Data: requestData{
		Type: "Participant",
		Attributes: map[string]interface{}{
			"participants": participants,
		},
	}}

	path := fmt.Sprintf("tournaments/%s/participants/bulk_add.json", t.BracketID(isPrivate))
	return c.do(ctx, "bulk_add_participants", http.MethodPost, path, payload, nil)
}

func (c *challongeClient) StartTournament(ctx context.Context, t *models.Tournament, isPrivate bool) error {
	payload := requestEnvelope{Data: requestData{
		Type:       "TournamentState",
		Attributes: map[string]interface{}{"state": "start"},
	}}

	path := fmt.Sprintf("tournaments/%s/change_state.json", t.BracketID(isPrivate))
	return c.do(ctx, "start_tournament", http.MethodPut, path, payload, nil)
}

// Элемент массива "included" в ответе провайдера. Массив гетерогенный,
// поэтому attributes и relationships разбираются по типу элемента.
type includedItem struct {
	Type          string          `json:"type"`
	ID            string          `json:"id"`
	Attributes    json.RawMessage `json:"attributes"`
	Relationships json.RawMessage `json:"relationships"`
}

type matchAttributes struct {
	Round int    `json:"round"`
	State string `json:"state"`
}

type matchRelationships struct {
	Player1 struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	} `json:"player1"`
	Player2 struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	} `json:"player2"`
}

type participantAttributes struct {
	Misc string `json:"misc"`
}

func (c *challongeClient) FetchBracket(ctx context.Context, t *models.Tournament, isPrivate bool) (*Bracket, error) {
	path := fmt.Sprintf("tournaments/%s.json", t.BracketID(isPrivate))

	var response struct {
		Included []includedItem `json:"included"`
	}
	if err := c.do(ctx, "fetch_bracket", http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}

	state := &Bracket{Participants: make(map[string]SeedPayload)}
	for _, item := range response.Included {
		switch item.Type {
		case "match":
			var attrs matchAttributes
			if err := json.Unmarshal(item.Attributes, &attrs); err != nil {
				return nil, fmt.Errorf("failed to parse match %s attributes: %w", item.ID, err)
			}
			var rels matchRelationships
			if len(item.Relationships) > 0 {
				if err := json.Unmarshal(item.Relationships, &rels); err != nil {
					return nil, fmt.Errorf("failed to parse match %s relationships: %w", item.ID, err)
				}
			}
			state.Matches = append(state.Matches, Match{
				ID:         item.ID,
				RoundIndex: attrs.Round,
				State:      attrs.State,
				Player1ID:  rels.Player1.Data.ID,
				Player2ID:  rels.Player2.Data.ID,
			})
		case "participant":
			var attrs participantAttributes
			if err := json.Unmarshal(item.Attributes, &attrs); err != nil {
				return nil, fmt.Errorf("failed to parse participant %s attributes: %w", item.ID, err)
			}
			payload, err := decodeSeedPayload(attrs.Misc)
			if err != nil {
				return nil, fmt.Errorf("participant %s: %w", item.ID, err)
			}
			state.Participants[item.ID] = payload
		}
	}
	return state, nil
}

func (c *challongeClient) UpdateMatch(ctx context.Context, t *models.Tournament, match *models.Match, results []ParticipantResult) error {
	payload := requestEnvelope{Data: requestData{
		Type: "Match",
		Attributes: map[string]interface{}{
			"match": results,
		},
	}}

	// Результаты всегда пишутся в приватную сетку; публичная копия
	// обновляется отдельным публикационным проходом.
	path := fmt.Sprintf("tournaments/%s/matches/%s.json", t.BracketIDPrivate, match.BracketID)
	return c.do(ctx, "update_match", http.MethodPut, path, payload, nil)
}

func (c *challongeClient) do(ctx context.Context, op, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request body: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization-Type", "v1")
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/vnd.api+json")
	// Дефолтный Go user agent роняет API провайдера, шлём пустой.
	req.Header.Set("User-Agent", "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ProviderError{Op: op, Body: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &ProviderError{Op: op, StatusCode: resp.StatusCode, Body: "failed to read response body"}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ProviderError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%s: failed to decode response: %w", op, err)
		}
	}
	return nil
}
