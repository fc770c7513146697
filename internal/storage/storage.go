// Package storage opens the record store selected by DATABASE_DRIVER.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/opsdesk/shift-backend/internal/config"
	"github.com/opsdesk/shift-backend/internal/domain"
	"github.com/opsdesk/shift-backend/internal/handler"
	"github.com/opsdesk/shift-backend/internal/memstore"
	"github.com/opsdesk/shift-backend/internal/mongostore"
	"github.com/opsdesk/shift-backend/internal/repository"
	"github.com/opsdesk/shift-backend/internal/scheduler"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store is implemented by every record store.
type Store interface {
	scheduler.ShiftStore
	handler.UserStore
}

var (
	_ Store = (*repository.Repository)(nil)
	_ Store = (*mongostore.Store)(nil)
	_ Store = (*memstore.Memory)(nil)
)

// Open connects to the configured store, applies the schema when
// DATABASE_AUTO_MIGRATE is set and returns a function releasing the
// connection.
func Open(cfg *config.Config, logger *slog.Logger) (Store, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		dbpool, err := sql.Open("pgx", cfg.Database.DSN)
		if err != nil {
			return nil, nil, err
		}

		dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

		// sql.Open only builds the pool, ping to actually connect
		if err := dbpool.PingContext(ctx); err != nil {
			dbpool.Close()
			return nil, nil, err
		}

		repo := repository.NewRepository(cfg, dbpool)
		if cfg.Database.AutoMigrate {
			if err := repo.Migrate(context.Background()); err != nil {
				dbpool.Close()
				return nil, nil, err
			}
			logger.Info("database schema applied")
		}
		return repo, func() { dbpool.Close() }, nil

	case config.DriverMongo:
		client, err := mongo.Connect(ctx, options.Client().
			ApplyURI(cfg.Database.DSN).
			SetMaxPoolSize(uint64(cfg.Database.MaxOpenConns)).
			SetMaxConnIdleTime(time.Duration(cfg.Database.MaxIdleTime)*time.Second))
		if err != nil {
			return nil, nil, err
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}

		ms := mongostore.New(cfg, client)
		if cfg.Database.AutoMigrate {
			if err := ms.EnsureIndexes(context.Background()); err != nil {
				_ = client.Disconnect(context.Background())
				return nil, nil, err
			}
			logger.Info("database indexes ensured")
		}
		return ms, func() { _ = client.Disconnect(context.Background()) }, nil

	default:
		logger.Warn("using the in-memory store, data is lost on restart")
		return memstore.New(), func() {}, nil
	}
}

// EnsureInitialAdmin creates the configured admin account unless its
// username is already taken.
func EnsureInitialAdmin(cfg *config.Config, users handler.UserStore) error {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialAdmin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	initialAdmin := &domain.User{
		Username:     cfg.InitialAdmin.Username,
		PasswordHash: string(passwordHash),
		Name:         cfg.InitialAdmin.Name,
		Email:        cfg.InitialAdmin.Email,
		Role:         domain.RoleAdmin,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if err := users.CreateUser(ctx, initialAdmin); err != nil {
		var dup *domain.DuplicateError
		if errors.As(err, &dup) && dup.Field == "username" {
			// already there from a previous start
			return nil
		}
		return err
	}

	return nil
}
