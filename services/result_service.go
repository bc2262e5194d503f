package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/codequest-hq/tournament-engine/bracket"
	"github.com/codequest-hq/tournament-engine/live"
	"github.com/codequest-hq/tournament-engine/models"
	"github.com/codequest-hq/tournament-engine/repositories"
	"golang.org/x/sync/errgroup"
)

// Параллелизм рассылки публикационных задач. Очередь задач переживает
// и больше, но смысла душить её нет.
const publishScheduleConcurrency = 8

type ResultService interface {
	// UpdateMatchOnProvider пишет финальные счета матча обратно в
	// приватную сетку провайдера. Продвигаются все участники с
	// максимальным счётом: ничья продвигает обоих.
	UpdateMatchOnProvider(ctx context.Context, matchID int) error
	// RequestPublish ставит по одной асинхронной задаче на каждый матч
	// раунда и оптимистично переводит release_status в RESULTS ещё до
	// того, как колбэки отработают.
	RequestPublish(ctx context.Context, roundID int, isPublic bool) (*models.Round, error)
}

type resultService struct {
	roundRepo      repositories.RoundRepository
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	bracketClient  bracket.Client
	scheduler      TaskScheduler
	notifier       RoundNotifier
	callbackBase   string
	logger         *slog.Logger
}

func NewResultService(
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	bracketClient bracket.Client,
	scheduler TaskScheduler,
	notifier RoundNotifier,
	callbackBase string,
	logger *slog.Logger,
) ResultService {
	return &resultService{
		roundRepo:      roundRepo,
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		bracketClient:  bracketClient,
		scheduler:      scheduler,
		notifier:       notifier,
		callbackBase:   callbackBase,
		logger:         logger,
	}
}

func (s *resultService) UpdateMatchOnProvider(ctx context.Context, matchID int) error {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return err
	}
	participants, err := s.matchRepo.ListParticipants(ctx, matchID)
	if err != nil {
		return err
	}
	if len(participants) == 0 {
		return fmt.Errorf("%w: match %d", ErrMatchHasNoParticipants, matchID)
	}

	round, err := s.roundRepo.GetByID(ctx, match.RoundID)
	if err != nil {
		return err
	}
	tournament, err := s.tournamentRepo.GetBySlug(ctx, round.TournamentSlug)
	if err != nil {
		return err
	}

	highScore := participants[0].Score
	for _, p := range participants[1:] {
		if p.Score > highScore {
			highScore = p.Score
		}
	}

	// Провайдер принимает счёт строкой: он поддерживает счёт по сетам
	// (списки через запятую), мы шлём одиночное число.
	results := make([]bracket.ParticipantResult, 0, len(participants))
	for _, p := range participants {
		results = append(results, bracket.ParticipantResult{
			ParticipantID: p.BracketID,
			Score:         strconv.Itoa(p.Score),
			Advancing:     p.Score == highScore,
		})
	}

	return s.bracketClient.UpdateMatch(ctx, tournament, match, results)
}

func (s *resultService) RequestPublish(ctx context.Context, roundID int, isPublic bool) (*models.Round, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return nil, err
	}
	tournament, err := s.tournamentRepo.GetBySlug(ctx, round.TournamentSlug)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByRound(ctx, roundID)
	if err != nil {
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(publishScheduleConcurrency)
	for _, match := range matches {
		match := match
		g.Go(func() error {
			task := Task{
				URL:    s.publishCallbackURL(tournament, round, match, isPublic),
				Method: "POST",
			}
			if err := s.scheduler.Schedule(gCtx, task); err != nil {
				return fmt.Errorf("failed to schedule publish task for match %d: %w", match.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.roundRepo.UpdateReleaseStatus(ctx, roundID, models.ReleaseResults); err != nil {
		return nil, err
	}
	round.ReleaseStatus = models.ReleaseResults

	s.logger.Info("round publish requested",
		slog.String("tournament", tournament.Slug),
		slog.Int("round", roundID),
		slog.Int("tasks", len(matches)),
		slog.Bool("is_public", isPublic))
	s.notifier.BroadcastToRoom(live.TournamentRoom(tournament.Slug), map[string]interface{}{
		"type":  "ROUND_RESULTS_RELEASED",
		"round": roundID,
	})

	return round, nil
}

func (s *resultService) publishCallbackURL(t *models.Tournament, round *models.Round, match *models.Match, isPublic bool) string {
	u := fmt.Sprintf("%s/api/episodes/%s/tournaments/%s/rounds/%d/matches/%d/publish",
		s.callbackBase, url.PathEscape(t.EpisodeSlug), url.PathEscape(t.Slug), round.ID, match.ID)
	if isPublic {
		u += "?is_public=true"
	}
	return u
}
