package bracket

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/codequest-hq/tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   map[string]interface{}
}

func newTestClient(t *testing.T, status int, responseBody string) (Client, *[]recordedRequest) {
	t.Helper()

	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
		}
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, &rec.Body))
		}
		requests = append(requests, rec)

		w.WriteHeader(status)
		_, _ = w.Write([]byte(responseBody))
	}))
	t.Cleanup(server.Close)

	client, err := NewChallongeClient(ChallongeConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return client, &requests
}

func bracketTestTournament() *models.Tournament {
	return &models.Tournament{
		Slug:             "summer-finals",
		NameLong:         "Summer Finals",
		EpisodeSlug:      "bc24",
		Style:            models.StyleSingleElimination,
		BracketIDPrivate: "summer_finals_abc_priv",
		BracketIDPublic:  "summer_finals",
	}
}

func intPtr(v int) *int { return &v }

func TestNewChallongeClientRequiresConfig(t *testing.T) {
	_, err := NewChallongeClient(ChallongeConfig{BaseURL: "https://example.org"})
	require.Error(t, err)
	_, err = NewChallongeClient(ChallongeConfig{APIKey: "key"})
	require.Error(t, err)
}

func TestCreateTournamentRequestShape(t *testing.T) {
	client, requests := newTestClient(t, http.StatusOK, `{}`)
	tournament := bracketTestTournament()

	err := client.CreateTournament(context.Background(), tournament, true)
	require.NoError(t, err)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/tournaments.json", req.Path)
	assert.Equal(t, "v1", req.Header.Get("Authorization-Type"))
	assert.Equal(t, "test-key", req.Header.Get("Authorization"))
	assert.Equal(t, "application/vnd.api+json", req.Header.Get("Content-Type"))

	data := req.Body["data"].(map[string]interface{})
	attrs := data["attributes"].(map[string]interface{})
	assert.Equal(t, "tournaments", data["type"])
	assert.Equal(t, "Summer Finals (Private)", attrs["name"])
	assert.Equal(t, "single elimination", attrs["tournament_type"])
	assert.Equal(t, true, attrs["private"])
	assert.Equal(t, "summer_finals_abc_priv", attrs["url"])
}

func TestCreateTournamentPublicCopy(t *testing.T) {
	client, requests := newTestClient(t, http.StatusOK, `{}`)
	tournament := bracketTestTournament()
	tournament.Style = models.StyleDoubleElimination

	err := client.CreateTournament(context.Background(), tournament, false)
	require.NoError(t, err)

	attrs := (*requests)[0].Body["data"].(map[string]interface{})["attributes"].(map[string]interface{})
	assert.Equal(t, "Summer Finals", attrs["name"])
	assert.Equal(t, "double elimination", attrs["tournament_type"])
	assert.Equal(t, false, attrs["private"])
	assert.Equal(t, "summer_finals", attrs["url"])
}

func TestBulkAddParticipantsSeedsFromOne(t *testing.T) {
	client, requests := newTestClient(t, http.StatusOK, `{}`)
	teams := []*models.Team{
		{ID: 11, Name: "alpha", ActiveSubmissionID: intPtr(101)},
		{ID: 12, Name: "beta", ActiveSubmissionID: intPtr(102)},
		{ID: 13, Name: "gamma", ActiveSubmissionID: intPtr(103)},
	}

	err := client.BulkAddParticipants(context.Background(), bracketTestTournament(), teams, true)
	require.NoError(t, err)

	req := (*requests)[0]
	assert.Equal(t, "/tournaments/summer_finals_abc_priv/participants/bulk_add.json", req.Path)

	attrs := req.Body["data"].(map[string]interface{})["attributes"].(map[string]interface{})
	participants := attrs["participants"].([]interface{})
	require.Len(t, participants, 3)
	for i, raw := range participants {
		p := raw.(map[string]interface{})
		assert.Equal(t, float64(i+1), p["seed"])

		var payload SeedPayload
		require.NoError(t, json.Unmarshal([]byte(p["misc"].(string)), &payload))
		assert.Equal(t, teams[i].ID, payload.TeamID)
		assert.Equal(t, *teams[i].ActiveSubmissionID, payload.SubmissionID)
	}
}

func TestBulkAddParticipantsRejectsTeamWithoutSubmission(t *testing.T) {
	client, requests := newTestClient(t, http.StatusOK, `{}`)
	teams := []*models.Team{{ID: 11, Name: "alpha"}}

	err := client.BulkAddParticipants(context.Background(), bracketTestTournament(), teams, true)
	require.Error(t, err)
	assert.Empty(t, *requests)
}

func TestStartTournament(t *testing.T) {
	client, requests := newTestClient(t, http.StatusOK, `{}`)

	err := client.StartTournament(context.Background(), bracketTestTournament(), false)
	require.NoError(t, err)

	req := (*requests)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/tournaments/summer_finals/change_state.json", req.Path)
	attrs := req.Body["data"].(map[string]interface{})["attributes"].(map[string]interface{})
	assert.Equal(t, "start", attrs["state"])
}

func TestFetchBracketParsesIncluded(t *testing.T) {
	response := `{
		"data": {"id": "t1", "type": "tournament"},
		"included": [
			{
				"id": "m1", "type": "match",
				"attributes": {"round": 1, "state": "open"},
				"relationships": {
					"player1": {"data": {"id": "p1", "type": "participant"}},
					"player2": {"data": {"id": "p2", "type": "participant"}}
				}
			},
			{
				"id": "m2", "type": "match",
				"attributes": {"round": 2, "state": "pending"},
				"relationships": {}
			},
			{
				"id": "p1", "type": "participant",
				"attributes": {"misc": "{\"team_id\":11,\"submission_id\":101}"}
			},
			{
				"id": "p2", "type": "participant",
				"attributes": {"misc": "{\"team_id\":12,\"submission_id\":102}"}
			},
			{"id": "x1", "type": "station"}
		]
	}`
	client, requests := newTestClient(t, http.StatusOK, response)

	state, err := client.FetchBracket(context.Background(), bracketTestTournament(), true)
	require.NoError(t, err)

	req := (*requests)[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/tournaments/summer_finals_abc_priv.json", req.Path)

	require.Len(t, state.Matches, 2)
	assert.Equal(t, Match{ID: "m1", RoundIndex: 1, State: "open", Player1ID: "p1", Player2ID: "p2"}, state.Matches[0])
	assert.Equal(t, Match{ID: "m2", RoundIndex: 2, State: "pending"}, state.Matches[1])

	require.Len(t, state.Participants, 2)
	assert.Equal(t, SeedPayload{TeamID: 11, SubmissionID: 101}, state.Participants["p1"])
	assert.Equal(t, SeedPayload{TeamID: 12, SubmissionID: 102}, state.Participants["p2"])

	indexes := state.RoundIndexes()
	assert.Len(t, indexes, 2)
	assert.Len(t, state.MatchesForRound(1), 1)
}

func TestFetchBracketRejectsMalformedMisc(t *testing.T) {
	response := `{
		"included": [
			{"id": "p1", "type": "participant", "attributes": {"misc": "not json"}}
		]
	}`
	client, _ := newTestClient(t, http.StatusOK, response)

	_, err := client.FetchBracket(context.Background(), bracketTestTournament(), true)
	require.Error(t, err)
}

func TestUpdateMatchTargetsPrivateBracket(t *testing.T) {
	client, requests := newTestClient(t, http.StatusOK, `{}`)
	match := &models.Match{ID: 41, BracketID: "m1"}
	results := []ParticipantResult{
		{ParticipantID: "p1", Score: "2", Advancing: true},
		{ParticipantID: "p2", Score: "1", Advancing: false},
	}

	err := client.UpdateMatch(context.Background(), bracketTestTournament(), match, results)
	require.NoError(t, err)

	req := (*requests)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/tournaments/summer_finals_abc_priv/matches/m1.json", req.Path)

	attrs := req.Body["data"].(map[string]interface{})["attributes"].(map[string]interface{})
	sent := attrs["match"].([]interface{})
	require.Len(t, sent, 2)
	first := sent[0].(map[string]interface{})
	assert.Equal(t, "p1", first["participant_id"])
	assert.Equal(t, "2", first["score"])
	assert.Equal(t, true, first["advancing"])
}

func TestProviderErrorOnFailedStatus(t *testing.T) {
	client, _ := newTestClient(t, http.StatusUnprocessableEntity, `{"errors":[{"detail":"URL taken"}]}`)

	err := client.CreateTournament(context.Background(), bracketTestTournament(), true)
	require.Error(t, err)

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, http.StatusUnprocessableEntity, providerErr.StatusCode)
	assert.Equal(t, "create_tournament", providerErr.Op)
	assert.Contains(t, providerErr.Body, "URL taken")
}
