package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codequest-hq/tournament-engine/bracket"
	"github.com/codequest-hq/tournament-engine/live"
	"github.com/codequest-hq/tournament-engine/models"
	"github.com/codequest-hq/tournament-engine/repositories"
)

// Состояние матча на стороне провайдера, при котором его можно забирать.
const providerMatchOpen = "open"

type RoundService interface {
	GetByID(ctx context.Context, id int) (*models.Round, error)
	ListByTournament(ctx context.Context, tournamentSlug string) ([]*models.Round, error)
	// EnqueueRound синхронизирует раунд с bracket-сервисом: создаёт
	// локальные матчи и их участников в одной транзакции и передаёт
	// матчи compute-бэкенду. Повторная постановка раунда исключена:
	// перевод in_progress выполняется первым оператором транзакции
	// как compare-and-swap.
	EnqueueRound(ctx context.Context, roundID int) ([]*models.Match, error)
}

type roundService struct {
	tx             repositories.Transactor
	roundRepo      repositories.RoundRepository
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	bracketClient  bracket.Client
	enqueuer       MatchEnqueuer
	notifier       RoundNotifier
	logger         *slog.Logger
}

func NewRoundService(
	tx repositories.Transactor,
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	bracketClient bracket.Client,
	enqueuer MatchEnqueuer,
	notifier RoundNotifier,
	logger *slog.Logger,
) RoundService {
	return &roundService{
		tx:             tx,
		roundRepo:      roundRepo,
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		bracketClient:  bracketClient,
		enqueuer:       enqueuer,
		notifier:       notifier,
		logger:         logger,
	}
}

func (s *roundService) GetByID(ctx context.Context, id int) (*models.Round, error) {
	return s.roundRepo.GetByID(ctx, id)
}

func (s *roundService) ListByTournament(ctx context.Context, tournamentSlug string) ([]*models.Round, error) {
	return s.roundRepo.ListByTournament(ctx, tournamentSlug)
}

func (s *roundService) EnqueueRound(ctx context.Context, roundID int) ([]*models.Match, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return nil, err
	}

	// Быстрая проверка до похода к провайдеру. Авторитетная защита -
	// compare-and-swap первым оператором транзакции ниже.
	if round.InProgress {
		return nil, ErrRoundAlreadyInProgress
	}

	// Матчи с чётным числом карт всё равно не сыграются без победителя,
	// так что падаем сразу. Ноль карт - тоже чётное число.
	if len(round.Maps)%2 == 0 {
		return nil, fmt.Errorf("%w: round %d has %d maps", ErrRoundInvalidMapCount, round.ID, len(round.Maps))
	}

	if round.BracketIndex == nil {
		return nil, fmt.Errorf("%w: round %d has no bracket index", ErrBracketDataIntegrity, round.ID)
	}

	tournament, err := s.tournamentRepo.GetBySlug(ctx, round.TournamentSlug)
	if err != nil {
		return nil, err
	}
	if !tournament.Initialized() {
		return nil, fmt.Errorf("%w: tournament %s", ErrTournamentNotInitialized, tournament.Slug)
	}

	state, err := s.bracketClient.FetchBracket(ctx, tournament, true)
	if err != nil {
		return nil, err
	}

	providerMatches := state.MatchesForRound(*round.BracketIndex)

	// Раунд забирается только целиком: любой матч не в состоянии "open"
	// означает, что раунд уже идёт или завершён на стороне провайдера.
	// Принудительной повторной постановки не существует.
	for _, pm := range providerMatches {
		if pm.State != providerMatchOpen {
			return nil, fmt.Errorf("%w: match %s is %q", ErrRoundNotReady, pm.ID, pm.State)
		}
	}

	matches := make([]*models.Match, 0, len(providerMatches))
	for _, pm := range providerMatches {
		match := &models.Match{
			EpisodeSlug:    tournament.EpisodeSlug,
			RoundID:        round.ID,
			BracketID:      pm.ID,
			AlternateOrder: true,
			IsRanked:       false,
			Status:         models.MatchStatusQueued,
		}

		// Провайдер нумерует слоты игроков с единицы, локальная система -
		// с нуля.
		for playerIndex, participantID := range []string{pm.Player1ID, pm.Player2ID} {
			payload, ok := state.Participants[participantID]
			if !ok {
				return nil, fmt.Errorf("%w: match %s references unknown participant %q",
					ErrBracketDataIntegrity, pm.ID, participantID)
			}
			match.Participants = append(match.Participants, models.MatchParticipant{
				TeamID:       payload.TeamID,
				SubmissionID: payload.SubmissionID,
				PlayerIndex:  playerIndex,
				BracketID:    participantID,
			})
		}
		matches = append(matches, match)
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		flipped, err := s.roundRepo.MarkInProgress(ctx, exec, round.ID)
		if err != nil {
			return err
		}
		if !flipped {
			return ErrRoundAlreadyInProgress
		}

		// Сначала матчи: зависимые строки ссылаются на их сгенерированные
		// первичные ключи.
		if err := s.matchRepo.BulkCreate(ctx, exec, matches); err != nil {
			return fmt.Errorf("failed to create matches for round %d: %w", round.ID, err)
		}
		if err := s.matchRepo.BulkCreateMaps(ctx, exec, matches, round.Maps); err != nil {
			return err
		}

		participants := make([]*models.MatchParticipant, 0, 2*len(matches))
		for _, match := range matches {
			for i := range match.Participants {
				match.Participants[i].MatchID = match.ID
				participants = append(participants, &match.Participants[i])
			}
		}
		if err := s.matchRepo.BulkCreateParticipants(ctx, exec, participants); err != nil {
			return fmt.Errorf("failed to create match participants for round %d: %w", round.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	round.InProgress = true
	s.logger.Info("round enqueued",
		slog.String("tournament", tournament.Slug),
		slog.Int("round", round.ID),
		slog.Int("matches", len(matches)))
	s.notifier.BroadcastToRoom(live.TournamentRoom(tournament.Slug), map[string]interface{}{
		"type":    "ROUND_ENQUEUED",
		"round":   round.ID,
		"matches": len(matches),
	})

	// Постановка на исполнение идёт после коммита: её сбой не откатывает
	// уже созданные матчи, застрявшие матчи доводит оператор.
	matchIDs := make([]int, len(matches))
	for i, match := range matches {
		matchIDs[i] = match.ID
	}
	if err := s.enqueuer.EnqueueMatches(ctx, matchIDs); err != nil {
		s.logger.Error("execution enqueue failed for committed matches",
			slog.Int("round", round.ID),
			slog.Any("error", err))
		return matches, fmt.Errorf("matches created but execution enqueue failed for round %d: %w", round.ID, err)
	}

	return matches, nil
}
