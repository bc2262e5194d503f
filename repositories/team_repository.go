package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/codequest-hq/tournament-engine/models"
)

var ErrTeamNotFound = errors.New("team not found")

type TeamRepository interface {
	GetByID(ctx context.Context, id int) (*models.Team, error)
	// ListEligible возвращает команды, которые вошли бы в турнир,
	// начнись он прямо сейчас: активные, с принятым сабмишеном,
	// прошедшие include/exclude критерии, по убыванию рейтинга.
	// Сортировка стабильна: ничьи по рейтингу разрешаются по id.
	ListEligible(ctx context.Context, tournament *models.Tournament) ([]*models.Team, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `
		SELECT id, episode_slug, name, status, join_key, rating, active_submission_id, has_resume, created_at
		FROM teams
		WHERE id = $1`

	team := &models.Team{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&team.ID,
		&team.EpisodeSlug,
		&team.Name,
		&team.Status,
		&team.JoinKey,
		&team.Rating,
		&team.ActiveSubmissionID,
		&team.HasResume,
		&team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team by id %d: %w", id, err)
	}
	return team, nil
}

func (r *postgresTeamRepository) ListEligible(ctx context.Context, tournament *models.Tournament) ([]*models.Team, error) {
	// Команда подходит, если удовлетворяет всем include-критериям турнира
	// и ни одному exclude-критерию.
	query := `
		SELECT t.id, t.episode_slug, t.name, t.status, t.join_key, t.rating,
		       t.active_submission_id, t.has_resume, t.created_at
		FROM teams t
		WHERE t.episode_slug = $1
		  AND t.status = $2
		  AND t.active_submission_id IS NOT NULL
		  AND ($3 = FALSE OR t.has_resume)
		  AND NOT EXISTS (
		      SELECT 1
		      FROM tournament_eligibility_includes inc
		      WHERE inc.tournament_slug = $4
		        AND NOT EXISTS (
		            SELECT 1
		            FROM team_eligibility te
		            WHERE te.team_id = t.id AND te.criterion_id = inc.criterion_id))
		  AND NOT EXISTS (
		      SELECT 1
		      FROM tournament_eligibility_excludes exc
		      JOIN team_eligibility te
		        ON te.team_id = t.id AND te.criterion_id = exc.criterion_id
		      WHERE exc.tournament_slug = $4)
		ORDER BY t.rating DESC, t.id ASC`

	rows, err := r.db.QueryContext(ctx, query,
		tournament.EpisodeSlug,
		models.TeamStatusActive,
		tournament.RequireResume,
		tournament.Slug,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible teams for tournament %s: %w", tournament.Slug, err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		var team models.Team
		if scanErr := rows.Scan(
			&team.ID,
			&team.EpisodeSlug,
			&team.Name,
			&team.Status,
			&team.JoinKey,
			&team.Rating,
			&team.ActiveSubmissionID,
			&team.HasResume,
			&team.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan eligible team row: %w", scanErr)
		}
		teams = append(teams, &team)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during eligible team rows iteration: %w", err)
	}
	return teams, nil
}
