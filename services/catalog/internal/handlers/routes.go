package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/game-store/internal/platform/auth"
)

// Deps are the collaborators the catalog routes are built from.
type Deps struct {
	Lister     Lister
	Games      GameService
	Genres     GenreService
	Publishers PublisherService
	Platforms  PlatformService
	Cart       CartService
	Verifier   auth.JWTVerifier
	// Limiter, when set, wraps every /v1 route.
	Limiter    func(http.Handler) http.Handler
	Log        *zap.Logger
}

// Register mounts the catalog API on r. Writes need a user with the admin or
// manager role; the cart needs any authenticated user.
func Register(r chi.Router, d Deps) {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r.Route("/v1", func(r chi.Router) {
		if d.Limiter != nil {
			r.Use(d.Limiter)
		}

		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalUser(d.Verifier))
			r.Get("/games", ListGames(d.Lister, log))
			r.Get("/games/options", GameOptions())
			r.Get("/games/{ref}", GetGame(d.Games, log))
			r.Get("/genres", ListGenres(d.Genres, log))
			r.Get("/genres/{id}", GetGenre(d.Genres, log))
			r.Get("/publishers", ListPublishers(d.Publishers, log))
			r.Get("/platforms", ListPlatforms(d.Platforms, log))
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser(d.Verifier))
			r.Get("/cart", GetCart(d.Cart, log))
			r.Post("/cart/{ref}", AddToCart(d.Cart, log))
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser(d.Verifier))
			r.Use(auth.RequireRole(auth.RoleAdmin, auth.RoleManager))

			r.Post("/games", CreateGame(d.Games, log))
			r.Put("/games/{ref}", UpdateGame(d.Games, log))
			r.Delete("/games/{ref}", DeleteGame(d.Games, log))

			r.Post("/genres", CreateGenre(d.Genres, log))
			r.Put("/genres/{id}", UpdateGenre(d.Genres, log))
			r.Delete("/genres/{id}", DeleteGenre(d.Genres, log))

			r.Post("/publishers", CreatePublisher(d.Publishers, log))
			r.Put("/publishers/{id}", UpdatePublisher(d.Publishers, log))
			r.Delete("/publishers/{id}", DeletePublisher(d.Publishers, log))

			r.Post("/platforms", CreatePlatform(d.Platforms, log))
			r.Delete("/platforms/{id}", DeletePlatform(d.Platforms, log))
		})
	})
}
