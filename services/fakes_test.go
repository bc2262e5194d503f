package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/codequest-hq/tournament-engine/bracket"
	"github.com/codequest-hq/tournament-engine/models"
	"github.com/codequest-hq/tournament-engine/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTransactor прогоняет функцию без настоящей транзакции.
// commits считает только успешные прогоны.
type fakeTransactor struct {
	beginErr error
	commits  int
}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	if err := fn(nil); err != nil {
		return err
	}
	f.commits++
	return nil
}

type fakeTournamentRepo struct {
	tournaments map[string]*models.Tournament

	bracketIDsSlug    string
	bracketIDsPrivate string
	bracketIDsPublic  string
	updateBracketErr  error

	logoKeys map[string]*string
}

func (f *fakeTournamentRepo) GetBySlug(ctx context.Context, slug string) (*models.Tournament, error) {
	t, ok := f.tournaments[slug]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTournamentRepo) List(ctx context.Context, episodeSlug string) ([]*models.Tournament, error) {
	var out []*models.Tournament
	for _, t := range f.tournaments {
		if t.EpisodeSlug == episodeSlug {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeTournamentRepo) UpdateBracketIDs(ctx context.Context, exec repositories.SQLExecutor, slug, privateID, publicID string) error {
	if f.updateBracketErr != nil {
		return f.updateBracketErr
	}
	f.bracketIDsSlug = slug
	f.bracketIDsPrivate = privateID
	f.bracketIDsPublic = publicID
	return nil
}

func (f *fakeTournamentRepo) UpdateLogoKey(ctx context.Context, slug string, logoKey *string) error {
	if f.logoKeys == nil {
		f.logoKeys = make(map[string]*string)
	}
	f.logoKeys[slug] = logoKey
	return nil
}

type fakeTeamRepo struct {
	teams   []*models.Team
	listErr error
}

func (f *fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	for _, team := range f.teams {
		if team.ID == id {
			return team, nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (f *fakeTeamRepo) ListEligible(ctx context.Context, tournament *models.Tournament) ([]*models.Team, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.teams, nil
}

type fakeRoundRepo struct {
	rounds map[int]*models.Round

	created []*models.Round

	markCalls       int
	markInProgress  bool
	markErr         error
	releaseStatuses map[int]models.ReleaseStatus
}

func (f *fakeRoundRepo) GetByID(ctx context.Context, id int) (*models.Round, error) {
	r, ok := f.rounds[id]
	if !ok {
		return nil, repositories.ErrRoundNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRoundRepo) ListByTournament(ctx context.Context, tournamentSlug string) ([]*models.Round, error) {
	var out []*models.Round
	for _, r := range f.rounds {
		if r.TournamentSlug == tournamentSlug {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeRoundRepo) BulkCreate(ctx context.Context, exec repositories.SQLExecutor, rounds []*models.Round) error {
	for i, r := range rounds {
		r.ID = len(f.created) + i + 1
	}
	f.created = append(f.created, rounds...)
	return nil
}

func (f *fakeRoundRepo) MarkInProgress(ctx context.Context, exec repositories.SQLExecutor, id int) (bool, error) {
	f.markCalls++
	if f.markErr != nil {
		return false, f.markErr
	}
	return f.markInProgress, nil
}

func (f *fakeRoundRepo) UpdateReleaseStatus(ctx context.Context, id int, status models.ReleaseStatus) error {
	if f.releaseStatuses == nil {
		f.releaseStatuses = make(map[int]models.ReleaseStatus)
	}
	f.releaseStatuses[id] = status
	return nil
}

type fakeMatchRepo struct {
	matches      map[int]*models.Match
	participants map[int][]*models.MatchParticipant

	created             []*models.Match
	createdMaps         int
	createdParticipants []*models.MatchParticipant

	bulkCreateErr error
}

func (f *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m, ok := f.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *m
	return &copied, nil
}

func (f *fakeMatchRepo) ListByRound(ctx context.Context, roundID int) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range f.matches {
		if m.RoundID == roundID {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeMatchRepo) ListParticipants(ctx context.Context, matchID int) ([]*models.MatchParticipant, error) {
	return f.participants[matchID], nil
}

func (f *fakeMatchRepo) BulkCreate(ctx context.Context, exec repositories.SQLExecutor, matches []*models.Match) error {
	if f.bulkCreateErr != nil {
		return f.bulkCreateErr
	}
	for i, m := range matches {
		m.ID = len(f.created) + i + 1
	}
	f.created = append(f.created, matches...)
	return nil
}

func (f *fakeMatchRepo) BulkCreateMaps(ctx context.Context, exec repositories.SQLExecutor, matches []*models.Match, maps []models.GameMap) error {
	f.createdMaps += len(matches) * len(maps)
	return nil
}

func (f *fakeMatchRepo) BulkCreateParticipants(ctx context.Context, exec repositories.SQLExecutor, participants []*models.MatchParticipant) error {
	f.createdParticipants = append(f.createdParticipants, participants...)
	return nil
}

// fakeBracketClient пишет журнал вызовов вида "create:true", "start:false".
type fakeBracketClient struct {
	state *bracket.Bracket

	calls []string

	createErr error
	bulkErr   error
	startErr  error
	fetchErr  error
	updateErr error

	updatedMatch   *models.Match
	updatedResults []bracket.ParticipantResult
}

func call(op string, isPrivate bool) string {
	if isPrivate {
		return op + ":private"
	}
	return op + ":public"
}

func (f *fakeBracketClient) CreateTournament(ctx context.Context, t *models.Tournament, isPrivate bool) error {
	f.calls = append(f.calls, call("create", isPrivate))
	return f.createErr
}

func (f *fakeBracketClient) BulkAddParticipants(ctx context.Context, t *models.Tournament, teams []*models.Team, isPrivate bool) error {
	f.calls = append(f.calls, call("bulk_add", isPrivate))
	return f.bulkErr
}

func (f *fakeBracketClient) StartTournament(ctx context.Context, t *models.Tournament, isPrivate bool) error {
	f.calls = append(f.calls, call("start", isPrivate))
	return f.startErr
}

func (f *fakeBracketClient) FetchBracket(ctx context.Context, t *models.Tournament, isPrivate bool) (*bracket.Bracket, error) {
	f.calls = append(f.calls, call("fetch", isPrivate))
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.state == nil {
		return nil, errors.New("fake bracket state not configured")
	}
	return f.state, nil
}

func (f *fakeBracketClient) UpdateMatch(ctx context.Context, t *models.Tournament, match *models.Match, results []bracket.ParticipantResult) error {
	f.calls = append(f.calls, "update_match")
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedMatch = match
	f.updatedResults = results
	return nil
}

type fakeEnqueuer struct {
	batches [][]int
	err     error
}

func (f *fakeEnqueuer) EnqueueMatches(ctx context.Context, matchIDs []int) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, matchIDs)
	return nil
}

type fakeScheduler struct {
	mu    sync.Mutex
	tasks []Task
	err   error
}

func (f *fakeScheduler) Schedule(ctx context.Context, task Task) error {
	if f.err != nil {
		return f.err
	}
	// Schedule зовётся из нескольких горутин errgroup.
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)
	return nil
}

type fakeNotifier struct {
	rooms    []string
	messages []interface{}
}

func (f *fakeNotifier) BroadcastToRoom(roomID string, message interface{}) {
	f.rooms = append(f.rooms, roomID)
	f.messages = append(f.messages, message)
}
