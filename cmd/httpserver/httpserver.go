// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Sergey-Spodarev/-Bank-REST/internal/carddelivery"
	"github.com/Sergey-Spodarev/-Bank-REST/internal/cardrepo"
	"github.com/Sergey-Spodarev/-Bank-REST/internal/cardservice"
	"github.com/Sergey-Spodarev/-Bank-REST/internal/middleware"
	"github.com/Sergey-Spodarev/-Bank-REST/internal/transferdelivery"
	"github.com/Sergey-Spodarev/-Bank-REST/internal/transferservice"
	"github.com/Sergey-Spodarev/-Bank-REST/internal/userdelivery"
	"github.com/Sergey-Spodarev/-Bank-REST/internal/userrepo"
	"github.com/Sergey-Spodarev/-Bank-REST/internal/userservice"
	"github.com/Sergey-Spodarev/-Bank-REST/pkg/cipherpkg"
	"github.com/Sergey-Spodarev/-Bank-REST/pkg/configpkg"
	"github.com/Sergey-Spodarev/-Bank-REST/pkg/tokenpkg"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB     *sql.DB
	Engine *gin.Engine
	Config configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with instantiated domains and routes.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	userRepo := userrepo.NewRepoPGS(conn)
	cardRepo := cardrepo.NewRepoPGS(conn)

	tokenMaker, err := tokenpkg.NewJWTMaker(config.TokenSymmetricKey)
	if err != nil {
		return nil, errors.New("cannot create token maker")
	}

	cipher, err := cipherpkg.New(config.CardCipherKey)
	if err != nil {
		return nil, errors.New("cannot create card number cipher")
	}

	userService := userservice.New(userRepo)
	cardService := cardservice.New(cardRepo, userRepo, cipher)
	transferService := transferservice.New(cardRepo, cardService)

	userHandler := userdelivery.NewHandler(userService, tokenMaker, config.AccessTokenDuration)
	cardHandler := carddelivery.NewHandler(cardService)
	transferHandler := transferdelivery.NewHandler(transferService)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.POST("/users", userHandler.Create)
	engine.POST("/users/login", userHandler.Login)

	authRoutes := engine.Group("/").Use(middleware.AuthMiddleware(tokenMaker))

	authRoutes.POST("/cards", cardHandler.Create)
	authRoutes.GET("/cards", cardHandler.List)
	authRoutes.GET("/cards/my", cardHandler.ListOwn)
	authRoutes.PATCH("/cards/:id/block", cardHandler.Block)
	authRoutes.PATCH("/cards/:id/activate", cardHandler.Activate)
	authRoutes.PATCH("/cards/:id/unblock", cardHandler.Activate)
	authRoutes.DELETE("/cards/:id", cardHandler.Delete)
	authRoutes.GET("/cards/:id/balance", transferHandler.GetBalance)

	authRoutes.POST("/transfers", transferHandler.Create)

	server := &Server{
		DB:     conn,
		Engine: engine,
		Config: config,
	}

	return server, nil
}
