package routes

import (
	"github.com/codequest-hq/tournament-engine/handlers"
	"github.com/codequest-hq/tournament-engine/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

// SetupRoutes вешает все маршруты API на переданный роутер.
// Публичные GET-ы открыты; управляющие POST-ы требуют admin-токен.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	taskAuth *middleware.TaskAuthenticator,
	tournamentHandler *handlers.TournamentHandler,
	roundHandler *handlers.RoundHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Route("/api", func(r chi.Router) {
		// Публичные маршруты для просмотра турниров и раундов
		r.Get("/episodes/{episodeSlug}/tournaments", tournamentHandler.ListHandler)
		r.Get("/tournaments/{tournamentSlug}", tournamentHandler.GetBySlugHandler)
		r.Get("/tournaments/{tournamentSlug}/rounds", roundHandler.ListByTournamentHandler)
		r.Get("/rounds/{roundID}", roundHandler.GetByIDHandler)

		// Защищённые маршруты только для администраторов турнира
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.Authorize("admin"))

			r.Post("/tournaments/{tournamentSlug}/initialize", tournamentHandler.InitializeHandler)
			r.Post("/tournaments/{tournamentSlug}/logo", tournamentHandler.UploadLogoHandler)
			r.Post("/rounds/{roundID}/enqueue", roundHandler.EnqueueHandler)
			r.Post("/rounds/{roundID}/publish", roundHandler.RequestPublishHandler)
		})

		// Колбэк очереди задач: по одному вызову на матч раунда.
		// Очередь приходит с Google OIDC-токеном, админский JWT её бы
		// не пропустил.
		r.Group(func(r chi.Router) {
			r.Use(taskAuth.Authenticate)

			r.Post("/episodes/{episodeSlug}/tournaments/{tournamentSlug}/rounds/{roundID}/matches/{matchID}/publish", roundHandler.PublishMatchHandler)
		})
	})

	router.Get("/ws/tournaments/{tournamentSlug}", webSocketHandler.ServeWs)
}
