package bracket

import (
	"context"

	"github.com/codequest-hq/tournament-engine/models"
)

// Match - матч, каким его отдаёт bracket-сервис: индекс раунда, состояние
// жизненного цикла и идентификаторы участников в двух слотах.
type Match struct {
	ID         string
	RoundIndex int
	State      string
	Player1ID  string
	Player2ID  string
}

// Bracket - полное состояние одной копии сетки (private или public):
// все матчи плюс посеянные участники, индексированные идентификатором
// провайдера.
type Bracket struct {
	Matches      []Match
	Participants map[string]SeedPayload
}

// RoundIndexes возвращает множество различных индексов раундов,
// о которых сообщил провайдер.
func (b *Bracket) RoundIndexes() map[int]struct{} {
	indexes := make(map[int]struct{})
	for _, m := range b.Matches {
		indexes[m.RoundIndex] = struct{}{}
	}
	return indexes
}

// MatchesForRound возвращает матчи с заданным индексом раунда.
func (b *Bracket) MatchesForRound(index int) []Match {
	var out []Match
	for _, m := range b.Matches {
		if m.RoundIndex == index {
			out = append(out, m)
		}
	}
	return out
}

// ParticipantResult - итог одного участника матча в формате провайдера.
// Score передаётся строкой: провайдер поддерживает счёт по сетам
// (списки через запятую), мы этим не пользуемся.
type ParticipantResult struct {
	ParticipantID string `json:"participant_id"`
	Score         string `json:"score"`
	Advancing     bool   `json:"advancing"`
}

// Client - набор операций против внешнего bracket-сервиса. Каждая
// операция адресует private или public копию сетки турнира флагом
// isPrivate. Чистая I/O-граница: бизнес-правил здесь нет.
type Client interface {
	CreateTournament(ctx context.Context, t *models.Tournament, isPrivate bool) error
	BulkAddParticipants(ctx context.Context, t *models.Tournament, teams []*models.Team, isPrivate bool) error
	StartTournament(ctx context.Context, t *models.Tournament, isPrivate bool) error
	FetchBracket(ctx context.Context, t *models.Tournament, isPrivate bool) (*Bracket, error)
	UpdateMatch(ctx context.Context, t *models.Tournament, match *models.Match, results []ParticipantResult) error
}
