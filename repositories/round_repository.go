package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/codequest-hq/tournament-engine/models"
	"github.com/lib/pq"
)

var (
	ErrRoundNotFound          = errors.New("round not found")
	ErrRoundTournamentInvalid = errors.New("round tournament conflict or invalid")
	ErrRoundIndexConflict     = errors.New("round bracket index already exists for this tournament")
)

type RoundRepository interface {
	GetByID(ctx context.Context, id int) (*models.Round, error)
	ListByTournament(ctx context.Context, tournamentSlug string) ([]*models.Round, error)
	BulkCreate(ctx context.Context, exec SQLExecutor, rounds []*models.Round) error
	// MarkInProgress атомарно переводит in_progress из FALSE в TRUE.
	// Возвращает false, если раунд уже был в работе: это single-flight
	// защита от двойной постановки раунда в очередь.
	MarkInProgress(ctx context.Context, exec SQLExecutor, id int) (bool, error)
	UpdateReleaseStatus(ctx context.Context, id int, status models.ReleaseStatus) error
}

type postgresRoundRepository struct {
	db *sql.DB
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return &postgresRoundRepository{db: db}
}

func (r *postgresRoundRepository) GetByID(ctx context.Context, id int) (*models.Round, error) {
	query := `
		SELECT id, tournament_slug, bracket_index, name, release_status, in_progress, created_at
		FROM rounds
		WHERE id = $1`

	round := &models.Round{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&round.ID,
		&round.TournamentSlug,
		&round.BracketIndex,
		&round.Name,
		&round.ReleaseStatus,
		&round.InProgress,
		&round.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to scan round by id %d: %w", id, err)
	}

	maps, err := r.listMaps(ctx, id)
	if err != nil {
		return nil, err
	}
	round.Maps = maps
	return round, nil
}

func (r *postgresRoundRepository) listMaps(ctx context.Context, roundID int) ([]models.GameMap, error) {
	query := `
		SELECT m.id, m.episode_slug, m.name, m.is_public
		FROM round_maps rm
		JOIN game_maps m ON m.id = rm.map_id
		WHERE rm.round_id = $1
		ORDER BY rm.position ASC`

	rows, err := r.db.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query maps for round %d: %w", roundID, err)
	}
	defer rows.Close()

	maps := make([]models.GameMap, 0)
	for rows.Next() {
		var m models.GameMap
		if scanErr := rows.Scan(&m.ID, &m.EpisodeSlug, &m.Name, &m.IsPublic); scanErr != nil {
			return nil, fmt.Errorf("failed to scan round map row: %w", scanErr)
		}
		maps = append(maps, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during round map rows iteration: %w", err)
	}
	return maps, nil
}

func (r *postgresRoundRepository) ListByTournament(ctx context.Context, tournamentSlug string) ([]*models.Round, error) {
	query := `
		SELECT id, tournament_slug, bracket_index, name, release_status, in_progress, created_at
		FROM rounds
		WHERE tournament_slug = $1
		ORDER BY bracket_index ASC NULLS LAST, id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds for tournament %s: %w", tournamentSlug, err)
	}
	defer rows.Close()

	rounds := make([]*models.Round, 0)
	for rows.Next() {
		var round models.Round
		if scanErr := rows.Scan(
			&round.ID,
			&round.TournamentSlug,
			&round.BracketIndex,
			&round.Name,
			&round.ReleaseStatus,
			&round.InProgress,
			&round.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan round row: %w", scanErr)
		}
		rounds = append(rounds, &round)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during round rows iteration: %w", err)
	}
	return rounds, nil
}

func (r *postgresRoundRepository) BulkCreate(ctx context.Context, exec SQLExecutor, rounds []*models.Round) error {
	query := `
		INSERT INTO rounds (tournament_slug, bracket_index, name, release_status, in_progress)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	for _, round := range rounds {
		err := exec.QueryRowContext(ctx, query,
			round.TournamentSlug,
			round.BracketIndex,
			round.Name,
			round.ReleaseStatus,
			round.InProgress,
		).Scan(&round.ID, &round.CreatedAt)
		if err != nil {
			return r.handleRoundError(err)
		}
	}
	return nil
}

func (r *postgresRoundRepository) MarkInProgress(ctx context.Context, exec SQLExecutor, id int) (bool, error) {
	query := `UPDATE rounds SET in_progress = TRUE WHERE id = $1 AND in_progress = FALSE`

	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("MarkInProgress: failed to execute query for round %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected == 1, nil
}

func (r *postgresRoundRepository) UpdateReleaseStatus(ctx context.Context, id int, status models.ReleaseStatus) error {
	query := `UPDATE rounds SET release_status = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("UpdateReleaseStatus: failed to execute query for round %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}

func (r *postgresRoundRepository) handleRoundError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "rounds_tournament_slug_fkey":
			return ErrRoundTournamentInvalid
		case "round_unique_tournament_bracket_index":
			return ErrRoundIndexConflict
		}
	}
	return err
}
