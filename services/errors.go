package services

import "errors"

// Общие ошибки оркестрации, маппятся на HTTP в хендлерах.
var (
	// Нарушения предусловий постановки раунда в очередь
	ErrRoundAlreadyInProgress = errors.New("the round's matches are already running on the compute backend")
	ErrRoundInvalidMapCount   = errors.New("the round does not have an odd number of maps")
	ErrRoundNotReady          = errors.New("the bracket service's round does not only have matches that are ready")

	// Повреждённые или отсутствующие корреляционные данные провайдера.
	// В нормальной работе не возникает; фатально для текущего вызова.
	ErrBracketDataIntegrity = errors.New("bracket service returned inconsistent correlation data")

	// Ошибки состояния турнира
	ErrTournamentNotInitialized = errors.New("tournament has not been initialized on the bracket service")

	// Ошибки матчей
	ErrMatchHasNoParticipants = errors.New("match has no participants to report")
)
