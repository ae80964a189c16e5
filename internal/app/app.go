package app

import (
	"context"
	"fmt"
	"log"

	"github.com/gfdmit/blog-service/config"
	"github.com/gfdmit/blog-service/internal/auth"
	"github.com/gfdmit/blog-service/internal/httpserver"
	"github.com/gfdmit/blog-service/internal/repository"
	"github.com/gfdmit/blog-service/internal/repository/postgres"
	"github.com/gfdmit/blog-service/internal/repository/sqlite"
	"github.com/gfdmit/blog-service/internal/router"
	"github.com/gfdmit/blog-service/internal/service"
)

// OpenRepository connects to the configured store and migrates it.
func OpenRepository(conf config.Config) (repository.Repository, error) {
	switch conf.Storage.Driver {
	case config.DriverSQLite:
		repo, err := sqlite.Open(conf.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		repo, err := postgres.New(conf.Postgres)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
}

func Run(ctx context.Context, conf config.Config) error {
	repo, err := OpenRepository(conf)
	if err != nil {
		return fmt.Errorf("error when setting up repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Println("[SHUTDOWN] close repository:", err)
		}
	}()

	service := service.New(repo)

	handler, err := router.New(conf.CORS, service, auth.New(repo))
	if err != nil {
		return fmt.Errorf("error when setting up handler: %v", err)
	}

	httpserver := httpserver.New(conf.HTTPServer, handler)

	return httpserver.Run(ctx)
}
