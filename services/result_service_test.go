package services

import (
	"context"
	"sort"
	"testing"

	"github.com/codequest-hq/tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resultFixture struct {
	svc       *resultService
	rounds    *fakeRoundRepo
	matches   *fakeMatchRepo
	client    *fakeBracketClient
	scheduler *fakeScheduler
	notifier  *fakeNotifier
}

func newResultFixture() *resultFixture {
	roundRepo := &fakeRoundRepo{
		rounds: map[int]*models.Round{7: testRound()},
	}
	matchRepo := &fakeMatchRepo{
		matches: map[int]*models.Match{
			41: {ID: 41, EpisodeSlug: "bc24", RoundID: 7, BracketID: "m1"},
			42: {ID: 42, EpisodeSlug: "bc24", RoundID: 7, BracketID: "m2"},
		},
		participants: map[int][]*models.MatchParticipant{
			41: {
				{ID: 1, MatchID: 41, TeamID: 11, PlayerIndex: 0, BracketID: "p1", Score: 2},
				{ID: 2, MatchID: 41, TeamID: 12, PlayerIndex: 1, BracketID: "p2", Score: 1},
			},
			42: {
				{ID: 3, MatchID: 42, TeamID: 13, PlayerIndex: 0, BracketID: "p3", Score: 2},
				{ID: 4, MatchID: 42, TeamID: 14, PlayerIndex: 1, BracketID: "p4", Score: 2},
			},
		},
	}
	tournamentRepo := &fakeTournamentRepo{
		tournaments: map[string]*models.Tournament{"summer-finals": initializedTournament()},
	}
	client := &fakeBracketClient{}
	scheduler := &fakeScheduler{}
	notifier := &fakeNotifier{}

	svc := NewResultService(roundRepo, matchRepo, tournamentRepo, client, scheduler, notifier,
		"https://engine.example.org", testLogger()).(*resultService)
	return &resultFixture{
		svc:       svc,
		rounds:    roundRepo,
		matches:   matchRepo,
		client:    client,
		scheduler: scheduler,
		notifier:  notifier,
	}
}

func TestUpdateMatchOnProviderReportsWinner(t *testing.T) {
	f := newResultFixture()

	err := f.svc.UpdateMatchOnProvider(context.Background(), 41)
	require.NoError(t, err)

	require.NotNil(t, f.client.updatedMatch)
	assert.Equal(t, 41, f.client.updatedMatch.ID)

	require.Len(t, f.client.updatedResults, 2)
	assert.Equal(t, "p1", f.client.updatedResults[0].ParticipantID)
	assert.Equal(t, "2", f.client.updatedResults[0].Score)
	assert.True(t, f.client.updatedResults[0].Advancing)
	assert.Equal(t, "p2", f.client.updatedResults[1].ParticipantID)
	assert.Equal(t, "1", f.client.updatedResults[1].Score)
	assert.False(t, f.client.updatedResults[1].Advancing)
}

func TestUpdateMatchOnProviderTieAdvancesBoth(t *testing.T) {
	f := newResultFixture()

	err := f.svc.UpdateMatchOnProvider(context.Background(), 42)
	require.NoError(t, err)

	require.Len(t, f.client.updatedResults, 2)
	assert.True(t, f.client.updatedResults[0].Advancing)
	assert.True(t, f.client.updatedResults[1].Advancing)
}

func TestUpdateMatchOnProviderNoParticipants(t *testing.T) {
	f := newResultFixture()
	f.matches.participants[41] = nil

	err := f.svc.UpdateMatchOnProvider(context.Background(), 41)
	require.ErrorIs(t, err, ErrMatchHasNoParticipants)
	assert.Empty(t, f.client.calls)
}

func TestRequestPublishSchedulesTaskPerMatch(t *testing.T) {
	f := newResultFixture()

	round, err := f.svc.RequestPublish(context.Background(), 7, true)
	require.NoError(t, err)

	urls := make([]string, 0, len(f.scheduler.tasks))
	for _, task := range f.scheduler.tasks {
		assert.Equal(t, "POST", task.Method)
		urls = append(urls, task.URL)
	}
	sort.Strings(urls)
	require.Equal(t, []string{
		"https://engine.example.org/api/episodes/bc24/tournaments/summer-finals/rounds/7/matches/41/publish?is_public=true",
		"https://engine.example.org/api/episodes/bc24/tournaments/summer-finals/rounds/7/matches/42/publish?is_public=true",
	}, urls)

	assert.Equal(t, models.ReleaseResults, round.ReleaseStatus)
	assert.Equal(t, models.ReleaseResults, f.rounds.releaseStatuses[7])
	require.Len(t, f.notifier.rooms, 1)
	assert.Equal(t, "tournament_summer-finals", f.notifier.rooms[0])
}

func TestRequestPublishPrivateOmitsPublicFlag(t *testing.T) {
	f := newResultFixture()

	_, err := f.svc.RequestPublish(context.Background(), 7, false)
	require.NoError(t, err)

	for _, task := range f.scheduler.tasks {
		assert.NotContains(t, task.URL, "is_public")
	}
}

func TestRequestPublishSchedulerFailureKeepsStatusHidden(t *testing.T) {
	f := newResultFixture()
	f.scheduler.err = assert.AnError

	_, err := f.svc.RequestPublish(context.Background(), 7, true)
	require.Error(t, err)
	assert.Empty(t, f.rounds.releaseStatuses)
	assert.Empty(t, f.notifier.rooms)
}
