package main

import (
	"github.com/rs/zerolog/log"

	_ "github.com/lib/pq"

	"github.com/Sergey-Spodarev/-Bank-REST/cmd/httpserver"
	"github.com/Sergey-Spodarev/-Bank-REST/internal/cardrepo"
	"github.com/Sergey-Spodarev/-Bank-REST/internal/cardsweeper"
	"github.com/Sergey-Spodarev/-Bank-REST/internal/middleware"
	"github.com/Sergey-Spodarev/-Bank-REST/pkg/configpkg"
	"github.com/Sergey-Spodarev/-Bank-REST/pkg/dbpkg"
)

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.GetLogger(config)

	conn, err := dbpkg.Setup(config.DBDriver, config.DBSource)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot connect to db")
	}

	server, err := httpserver.New(conn, logger, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	sweeper := cardsweeper.New(cardrepo.NewRepoPGS(conn), logger)
	if err := sweeper.Start(); err != nil {
		logger.Fatal().Err(err).Msg("cannot start expiry sweeper")
	}
	defer sweeper.Stop()

	if err := server.Engine.Run(config.ServerAddress); err != nil {
		logger.Fatal().Err(err).Msg("cannot start server")
	}
}
