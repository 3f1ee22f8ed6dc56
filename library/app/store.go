package app

import (
	"context"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-system/library/config"
	"github.com/Astemirdum/library-system/library/internal/repository"
	"github.com/Astemirdum/library-system/library/internal/service"
	"github.com/Astemirdum/library-system/library/migrations"
	"github.com/Astemirdum/library-system/pkg/circuit_breaker"
	"github.com/Astemirdum/library-system/pkg/kafka"
	"github.com/Astemirdum/library-system/pkg/postgres"
	"github.com/Astemirdum/library-system/pkg/sqlite"
)

// OpenDB connects to the configured store and applies its migrations.
func OpenDB(ctx context.Context, cfg config.Database) (*sqlx.DB, io.Closer, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := postgres.NewPostgresDB(ctx, &cfg.Postgres, migrations.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	case config.DriverSQLite:
		db, err := sqlite.NewSQLiteDB(&cfg.SQLite, migrations.SQLite)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	default:
		return nil, nil, errors.Errorf("unknown driver %q", cfg.Driver)
	}
}

// NewEnqueuer returns a kafka backed enqueuer, or a no-op one when kafka is
// disabled. The returned closer releases the producer.
func NewEnqueuer(cfg config.Config, log *zap.Logger) (kafka.Enqueuer, func(), error) {
	if !cfg.Kafka.Enabled {
		log.Info("kafka disabled, events are dropped")
		return kafka.NopEnqueuer{}, func() {}, nil
	}
	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return nil, nil, errors.Wrap(err, "kafka.NewProducer")
	}
	closeFn := func() {
		if err := producer.Close(); err != nil {
			log.Warn("producer.Close", zap.Error(err))
		}
	}
	return kafka.NewEnqueuer(producer, circuit_breaker.New(cfg.CB)), closeFn, nil
}

// NewLibrary wires the repository, the event enqueuer and the service on top
// of an opened database.
func NewLibrary(db *sqlx.DB, enqueuer kafka.Enqueuer, log *zap.Logger) (*service.Service, error) {
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return nil, err
	}
	return service.NewService(repo, enqueuer, log), nil
}
