package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/codequest-hq/tournament-engine/bracket"
	"github.com/codequest-hq/tournament-engine/live"
	"github.com/codequest-hq/tournament-engine/models"
	"github.com/codequest-hq/tournament-engine/repositories"
	"github.com/codequest-hq/tournament-engine/storage"
	"github.com/google/uuid"
)

type TournamentService interface {
	GetBySlug(ctx context.Context, slug string) (*models.Tournament, error)
	List(ctx context.Context, episodeSlug string) ([]*models.Tournament, error)
	// Initialize сеет турнир подходящими командами по убыванию рейтинга,
	// создаёт приватную и публичную сетки на bracket-сервисе и заводит
	// локальные раунды по индексам, которые сообщил провайдер.
	//
	// Операция рассчитана на однократный запуск. Встроенной идемпотентности
	// нет: повторный вызов после частичного сбоя упрётся в занятый
	// идентификатор сетки на стороне провайдера, и оператору придётся
	// разбираться вручную.
	Initialize(ctx context.Context, slug string) (*models.Tournament, error)
	UploadLogo(ctx context.Context, slug string, contentType string, file io.Reader) (*models.Tournament, error)
}

type tournamentService struct {
	tx             repositories.Transactor
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	roundRepo      repositories.RoundRepository
	bracketClient  bracket.Client
	uploader       storage.FileUploader
	notifier       RoundNotifier
	logger         *slog.Logger
}

func NewTournamentService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	roundRepo repositories.RoundRepository,
	bracketClient bracket.Client,
	uploader storage.FileUploader,
	notifier RoundNotifier,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tx:             tx,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		roundRepo:      roundRepo,
		bracketClient:  bracketClient,
		uploader:       uploader,
		notifier:       notifier,
		logger:         logger,
	}
}

func (s *tournamentService) GetBySlug(ctx context.Context, slug string) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	s.populateLogoURL(t)
	return t, nil
}

func (s *tournamentService) List(ctx context.Context, episodeSlug string) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, episodeSlug)
	if err != nil {
		return nil, err
	}
	for _, t := range tournaments {
		s.populateLogoURL(t)
	}
	return tournaments, nil
}

func (s *tournamentService) Initialize(ctx context.Context, slug string) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	// Публичный идентификатор выводится из slug детерминированно,
	// приватный дополняется случайным суффиксом: его нельзя угадать,
	// пока результаты не опубликованы. Некоторые bracket-сервисы не
	// принимают дефисы в идентификаторах, подставляем подчёркивания.
	publicID := strings.ReplaceAll(tournament.Slug, "-", "_")
	key := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	privateID := fmt.Sprintf("%s_%s_priv", publicID, key)

	tournament.BracketIDPublic = publicID
	tournament.BracketIDPrivate = privateID

	teams, err := s.teamRepo.ListEligible(ctx, tournament)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible teams for tournament %s: %w", slug, err)
	}
	s.logger.Info("seeding tournament",
		slog.String("tournament", slug),
		slog.Int("teams", len(teams)))

	// Сначала приватная сетка, потом публичная: проблемы формы сетки
	// должны всплыть приватно раньше, чем их кто-то увидит.
	for _, isPrivate := range []bool{true, false} {
		if err := s.bracketClient.CreateTournament(ctx, tournament, isPrivate); err != nil {
			return nil, err
		}
		if err := s.bracketClient.BulkAddParticipants(ctx, tournament, teams, isPrivate); err != nil {
			return nil, err
		}
		if err := s.bracketClient.StartTournament(ctx, tournament, isPrivate); err != nil {
			return nil, err
		}
	}

	state, err := s.bracketClient.FetchBracket(ctx, tournament, true)
	if err != nil {
		return nil, err
	}

	indexes := make([]int, 0)
	for index := range state.RoundIndexes() {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)

	rounds := make([]*models.Round, 0, len(indexes))
	for _, index := range indexes {
		index := index
		rounds = append(rounds, &models.Round{
			TournamentSlug: tournament.Slug,
			BracketIndex:   &index,
			Name:           fmt.Sprintf("Round %d", index),
			ReleaseStatus:  models.ReleaseHidden,
		})
	}

	// Раунды и идентификаторы сеток сохраняются в одной транзакции:
	// частичный результат здесь недопустим.
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.roundRepo.BulkCreate(ctx, exec, rounds); err != nil {
			return fmt.Errorf("failed to create rounds for tournament %s: %w", slug, err)
		}
		if err := s.tournamentRepo.UpdateBracketIDs(ctx, exec, slug, privateID, publicID); err != nil {
			return fmt.Errorf("failed to persist bracket ids for tournament %s: %w", slug, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tournament initialized",
		slog.String("tournament", slug),
		slog.Int("rounds", len(rounds)))
	s.notifier.BroadcastToRoom(live.TournamentRoom(slug), map[string]interface{}{
		"type":       "TOURNAMENT_INITIALIZED",
		"tournament": slug,
		"rounds":     len(rounds),
	})

	tournament.Rounds = make([]models.Round, len(rounds))
	for i, r := range rounds {
		tournament.Rounds[i] = *r
	}
	return tournament, nil
}

func (s *tournamentService) UploadLogo(ctx context.Context, slug string, contentType string, file io.Reader) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("tournaments/%s/logo", slug)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload logo for tournament %s: %w", slug, err)
	}

	if err := s.tournamentRepo.UpdateLogoKey(ctx, slug, &key); err != nil {
		return nil, err
	}
	tournament.LogoKey = &key
	s.populateLogoURL(tournament)
	return tournament, nil
}

func (s *tournamentService) populateLogoURL(t *models.Tournament) {
	if t.LogoKey == nil || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*t.LogoKey)
	if url != "" {
		t.LogoURL = &url
	}
}
