package services

import "context"

// MatchEnqueuer - внешний compute-бэкенд, исполняющий матчи. Контракт:
// принимает батч идентификаторов, отвечает за успех самой постановки
// в очередь, а не за итоговое выполнение матчей.
type MatchEnqueuer interface {
	EnqueueMatches(ctx context.Context, matchIDs []int) error
}

// Task - одна единица доставки для внешней очереди задач: очередь
// гарантирует eventual (at-least-once, без порядка) вызов URL.
type Task struct {
	URL    string
	Method string
}

// TaskScheduler - внешняя очередь задач для отложенных публикационных
// колбэков.
type TaskScheduler interface {
	Schedule(ctx context.Context, task Task) error
}

// RoundNotifier рассылает события жизненного цикла раундов подписчикам
// (websocket-комнаты турниров). Явный пост-коммитный вызов вместо
// неявного глобального реестра слушателей.
type RoundNotifier interface {
	BroadcastToRoom(roomID string, message interface{})
}
