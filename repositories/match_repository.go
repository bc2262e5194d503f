package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/codequest-hq/tournament-engine/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound         = errors.New("match not found")
	ErrMatchRoundInvalid     = errors.New("match round conflict or invalid")
	ErrMatchParticipantTeam  = errors.New("match participant team conflict or invalid")
	ErrMatchBracketIDTaken   = errors.New("match bracket id already exists")
	ErrMatchParticipantCount = errors.New("match must have exactly two participants")
)

type MatchRepository interface {
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByRound(ctx context.Context, roundID int) ([]*models.Match, error)
	ListParticipants(ctx context.Context, matchID int) ([]*models.MatchParticipant, error)
	// BulkCreate вставляет матчи и проставляет им сгенерированные ID.
	// Должен выполняться раньше BulkCreateMaps/BulkCreateParticipants:
	// зависимые строки ссылаются на эти ID.
	BulkCreate(ctx context.Context, exec SQLExecutor, matches []*models.Match) error
	BulkCreateMaps(ctx context.Context, exec SQLExecutor, matches []*models.Match, maps []models.GameMap) error
	BulkCreateParticipants(ctx context.Context, exec SQLExecutor, participants []*models.MatchParticipant) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `
		SELECT id, episode_slug, round_id, bracket_id, alternate_order, is_ranked, status, created_at
		FROM matches
		WHERE id = $1`

	match := &models.Match{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&match.ID,
		&match.EpisodeSlug,
		&match.RoundID,
		&match.BracketID,
		&match.AlternateOrder,
		&match.IsRanked,
		&match.Status,
		&match.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByRound(ctx context.Context, roundID int) ([]*models.Match, error) {
	query := `
		SELECT id, episode_slug, round_id, bracket_id, alternate_order, is_ranked, status, created_at
		FROM matches
		WHERE round_id = $1
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for round %d: %w", roundID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var match models.Match
		if scanErr := rows.Scan(
			&match.ID,
			&match.EpisodeSlug,
			&match.RoundID,
			&match.BracketID,
			&match.AlternateOrder,
			&match.IsRanked,
			&match.Status,
			&match.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, &match)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) ListParticipants(ctx context.Context, matchID int) ([]*models.MatchParticipant, error) {
	query := `
		SELECT id, match_id, team_id, submission_id, player_index, bracket_id, score
		FROM match_participants
		WHERE match_id = $1
		ORDER BY player_index ASC`

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants for match %d: %w", matchID, err)
	}
	defer rows.Close()

	participants := make([]*models.MatchParticipant, 0)
	for rows.Next() {
		var p models.MatchParticipant
		if scanErr := rows.Scan(
			&p.ID,
			&p.MatchID,
			&p.TeamID,
			&p.SubmissionID,
			&p.PlayerIndex,
			&p.BracketID,
			&p.Score,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match participant row: %w", scanErr)
		}
		participants = append(participants, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match participant rows iteration: %w", err)
	}
	return participants, nil
}

func (r *postgresMatchRepository) BulkCreate(ctx context.Context, exec SQLExecutor, matches []*models.Match) error {
	query := `
		INSERT INTO matches (episode_slug, round_id, bracket_id, alternate_order, is_ranked, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	for _, match := range matches {
		err := exec.QueryRowContext(ctx, query,
			match.EpisodeSlug,
			match.RoundID,
			match.BracketID,
			match.AlternateOrder,
			match.IsRanked,
			match.Status,
		).Scan(&match.ID, &match.CreatedAt)
		if err != nil {
			return r.handleMatchError(err)
		}
	}
	return nil
}

func (r *postgresMatchRepository) BulkCreateMaps(ctx context.Context, exec SQLExecutor, matches []*models.Match, maps []models.GameMap) error {
	if len(matches) == 0 || len(maps) == 0 {
		return nil
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`INSERT INTO match_maps (match_id, map_id, position) VALUES `)

	args := make([]interface{}, 0, len(matches)*len(maps)*3)
	placeholder := 1
	for i, match := range matches {
		if match.ID == 0 {
			return fmt.Errorf("match at index %d has no primary key; create matches first", i)
		}
		for pos, m := range maps {
			if placeholder > 1 {
				queryBuilder.WriteString(", ")
			}
			queryBuilder.WriteString("($" + strconv.Itoa(placeholder) +
				", $" + strconv.Itoa(placeholder+1) +
				", $" + strconv.Itoa(placeholder+2) + ")")
			args = append(args, match.ID, m.ID, pos)
			placeholder += 3
		}
	}

	if _, err := exec.ExecContext(ctx, queryBuilder.String(), args...); err != nil {
		return fmt.Errorf("failed to create match map associations: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) BulkCreateParticipants(ctx context.Context, exec SQLExecutor, participants []*models.MatchParticipant) error {
	query := `
		INSERT INTO match_participants (match_id, team_id, submission_id, player_index, bracket_id, score)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	for _, p := range participants {
		if p.MatchID == 0 {
			return fmt.Errorf("participant for team %d has no match primary key; create matches first", p.TeamID)
		}
		err := exec.QueryRowContext(ctx, query,
			p.MatchID,
			p.TeamID,
			p.SubmissionID,
			p.PlayerIndex,
			p.BracketID,
			p.Score,
		).Scan(&p.ID)
		if err != nil {
			return r.handleMatchError(err)
		}
	}
	return nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// "23503": foreign_key_violation, "23505": unique_violation
		switch pqErr.Constraint {
		case "matches_round_id_fkey":
			return ErrMatchRoundInvalid
		case "match_participants_team_id_fkey":
			return ErrMatchParticipantTeam
		case "matches_bracket_id_key":
			return ErrMatchBracketIDTaken
		}
	}
	return err
}
