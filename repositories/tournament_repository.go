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
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrTournamentConflict = errors.New("tournament slug already exists")
)

type TournamentRepository interface {
	GetBySlug(ctx context.Context, slug string) (*models.Tournament, error)
	List(ctx context.Context, episodeSlug string) ([]*models.Tournament, error)
	// UpdateBracketIDs сохраняет оба внешних идентификатора сетки.
	// Выполняется внутри транзакции инициализации вместе с созданием
	// раундов, поэтому принимает SQLExecutor.
	UpdateBracketIDs(ctx context.Context, exec SQLExecutor, slug, privateID, publicID string) error
	UpdateLogoKey(ctx context.Context, slug string, logoKey *string) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `
	slug, name_long, blurb, episode_slug, style, require_resume, is_public,
	display_date, submission_freeze, submission_unfreeze,
	bracket_id_private, bracket_id_public, logo_key, created_at`

func scanTournament(row interface {
	Scan(dest ...interface{}) error
}) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := row.Scan(
		&t.Slug,
		&t.NameLong,
		&t.Blurb,
		&t.EpisodeSlug,
		&t.Style,
		&t.RequireResume,
		&t.IsPublic,
		&t.DisplayDate,
		&t.SubmissionFreeze,
		&t.SubmissionUnfreeze,
		&t.BracketIDPrivate,
		&t.BracketIDPublic,
		&t.LogoKey,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) GetBySlug(ctx context.Context, slug string) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE slug = $1`

	t, err := scanTournament(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament %s: %w", slug, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, episodeSlug string) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE episode_slug = $1 ORDER BY display_date ASC, slug ASC`

	rows, err := r.db.QueryContext(ctx, query, episodeSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments for episode %s: %w", episodeSlug, err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) UpdateBracketIDs(ctx context.Context, exec SQLExecutor, slug, privateID, publicID string) error {
	query := `UPDATE tournaments SET bracket_id_private = $1, bracket_id_public = $2 WHERE slug = $3`

	result, err := exec.ExecContext(ctx, query, privateID, publicID, slug)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateLogoKey(ctx context.Context, slug string, logoKey *string) error {
	query := `UPDATE tournaments SET logo_key = $1 WHERE slug = $2`

	result, err := r.db.ExecContext(ctx, query, logoKey, slug)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// "23505": unique_violation
		if pqErr.Code == "23505" {
			return ErrTournamentConflict
		}
	}
	return err
}
