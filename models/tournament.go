package models

import "time"

// TournamentStyle определяет стиль сетки турнира, соответствует ENUM в БД.
type TournamentStyle string

const (
	StyleSingleElimination TournamentStyle = "SE"
	StyleDoubleElimination TournamentStyle = "DE"
)

// Tournament представляет турнир внутри эпизода (сезона).
//
// BracketIDPrivate и BracketIDPublic пустые до успешной инициализации и
// заполняются единожды: это идентификаторы ресурсов на внешнем
// bracket-сервисе, локальная система их содержимое не интерпретирует.
type Tournament struct {
	Slug               string          `json:"slug" db:"slug"`
	NameLong           string          `json:"name_long" db:"name_long"`
	Blurb              *string         `json:"blurb,omitempty" db:"blurb"`
	EpisodeSlug        string          `json:"episode" db:"episode_slug"`
	Style              TournamentStyle `json:"style" db:"style"`
	RequireResume      bool            `json:"require_resume" db:"require_resume"`
	IsPublic           bool            `json:"is_public" db:"is_public"`
	DisplayDate        time.Time       `json:"display_date" db:"display_date"`
	SubmissionFreeze   time.Time       `json:"submission_freeze" db:"submission_freeze"`
	SubmissionUnfreeze time.Time       `json:"submission_unfreeze" db:"submission_unfreeze"`
	BracketIDPrivate   string          `json:"-" db:"bracket_id_private"`
	BracketIDPublic    string          `json:"bracket_id_public" db:"bracket_id_public"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	LogoKey            *string         `json:"-" db:"logo_key"`
	LogoURL            *string         `json:"logo_url,omitempty" db:"-"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Episode *Episode `json:"episode_detail,omitempty" db:"-"`
	Rounds  []Round  `json:"rounds,omitempty" db:"-"`
}

// Initialized сообщает, был ли турнир уже заведён на bracket-сервисе.
// Оба идентификатора назначаются вместе в одной транзакции, так что
// хватило бы проверки любого из них.
func (t *Tournament) Initialized() bool {
	return t.BracketIDPrivate != "" && t.BracketIDPublic != ""
}

// BracketID возвращает идентификатор запрошенной копии сетки у провайдера.
func (t *Tournament) BracketID(isPrivate bool) string {
	if isPrivate {
		return t.BracketIDPrivate
	}
	return t.BracketIDPublic
}
