package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reelnotes/docs" //this is required to generate swagger docs
	"reelnotes/internal/auth"
	"reelnotes/internal/catalog"
	"reelnotes/internal/mailer"
	"reelnotes/internal/notifications"
	"reelnotes/internal/ratelimiter"
	"reelnotes/internal/sharecode"
	"reelnotes/internal/store"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         store.Storage
	logger        *zap.SugaredLogger
	catalog       catalog.Provider
	cld           *cloudinary.Cloudinary
	mailer        mailer.Client
	push          notifications.PushSender
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
	shareCodes    *sharecode.Codec
}

type config struct {
	addr        string
	db          dbConfig
	env         string
	apiURL      string
	mail        mailConfig
	frontendURL string
	auth        authConfig
	catalog     catalogConfig
	rateLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	refreshSecret   string
	secret          string
	accessTokenExp  time.Duration
	refreshTokenExp time.Duration
	iss             string
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	exp       time.Duration
	fromEmail string
	mailtrap  mailTrapConfig
}

type mailTrapConfig struct {
	apiKey string
}

type dbConfig struct {
	addr        string
	maxConns    int
	maxIdleTime string
}

type catalogConfig struct {
	apiKey  string
	baseURL string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiterMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		// Public routes
		r.Route("/authentication", func(r chi.Router) {
			r.Post("/user", app.registerUserHandler)
			r.Post("/token", app.createTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)
			r.Post("/forgot-password", app.forgotPasswordHandler)
			r.Post("/reset-password", app.resetPasswordHandler)
		})

		r.Put("/users/activate/{token}", app.activateUserHandler)

		r.Route("/users", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/me", app.currentUserHandler)
			r.Post("/avatar", app.uploadAvatarHandler)
			r.Post("/logout", app.logoutHandler)
			r.Post("/push-tokens", app.registerPushTokenHandler)
			r.Delete("/push-tokens", app.removePushTokenHandler)

			r.Route("/{userID}", func(r chi.Router) {
				r.Get("/", app.getUserProfileHandler)
				r.Get("/reviews", app.getUserReviewsHandler)
				r.Get("/followers", app.getFollowersHandler)
				r.Get("/following", app.getFollowingHandler)
				r.Put("/follow", app.followUserHandler)
				r.Put("/unfollow", app.unfollowUserHandler)
			})
		})

		r.Route("/movies", func(r chi.Router) {
			r.Get("/search", app.searchMoviesHandler)
			r.Get("/{movieID}", app.getMovieHandler)
			r.Get("/{movieID}/reviews", app.getMovieReviewsHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Post("/{movieID}/reviews", app.createReviewHandler)
				r.Put("/{movieID}/favorite", app.addFavoriteHandler)
				r.Delete("/{movieID}/favorite", app.removeFavoriteHandler)
				r.Put("/{movieID}/watchlist", app.addWatchlistHandler)
				r.Delete("/{movieID}/watchlist", app.removeWatchlistHandler)
			})
		})

		r.Get("/reviews/shared/{code}", app.getSharedReviewHandler)

		r.Route("/reviews/{reviewID}", func(r chi.Router) {
			r.Get("/", app.getReviewHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Patch("/", app.updateReviewHandler)
				r.Delete("/", app.deleteReviewHandler)
				r.Put("/like", app.toggleReviewLikeHandler)

				r.Post("/comments", app.createCommentHandler)
				r.Patch("/comments/{commentID}", app.editCommentHandler)
				r.Delete("/comments/{commentID}", app.deleteCommentHandler)
				r.Put("/comments/{commentID}/like", app.toggleCommentLikeHandler)
			})
		})

		r.Route("/me", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/favorites", app.listFavoritesHandler)
			r.Get("/watchlist", app.listWatchlistHandler)
			r.Get("/notifications", app.listNotificationsHandler)
			r.Put("/notifications/{notificationID}/read", app.markNotificationReadHandler)
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
