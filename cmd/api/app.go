package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wanderlust/wanderlust-go/internal/config"
	"github.com/wanderlust/wanderlust-go/internal/crypto"
	"github.com/wanderlust/wanderlust-go/internal/repository"
	"github.com/wanderlust/wanderlust-go/internal/service"
	"github.com/wanderlust/wanderlust-go/internal/session"
)

// app holds the stores and services selected by configuration.
type app struct {
	cfg      config.Config
	listings *service.ListingService
	reviews  *service.ReviewService
	auth     *service.AuthService
	images   *service.ImageService
	sessions session.Store

	mongo   *mongo.Client
	closers []func(context.Context) error
}

func openApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{cfg: cfg}

	var (
		listings service.ListingStore
		reviews  service.ReviewStore
		users    service.UserStore
		images   service.ImageStore
	)

	switch cfg.DataStore {
	case "memory":
		store := repository.NewMemoryStore()
		listings, reviews, users, images = store.Listings(), store.Reviews(), store.Users(), store.Images()
		slog.Warn("using in-memory data store, data is lost on restart")
	case "mongo":
		db, err := a.mongoDB(ctx)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		userRepo := repository.NewUserRepository(db, cfg.DBTimeout)
		if err := userRepo.EnsureIndexes(ctx); err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("creating user indexes: %w", err)
		}
		listings = repository.NewListingRepository(db, cfg.DBTimeout)
		reviews = repository.NewReviewRepository(db, cfg.DBTimeout)
		users = userRepo
		images = repository.NewImageStore(db, cfg.ImageBucket, cfg.UploadTimeout)
	default:
		return nil, fmt.Errorf("unknown DATA_STORE %q", cfg.DataStore)
	}

	sessions, err := a.sessionStore(ctx)
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	a.sessions = sessions

	a.listings = service.NewListingService(listings, reviews, users, images)
	a.reviews = service.NewReviewService(listings, reviews)
	a.auth = service.NewAuthService(users, crypto.NewPasswordHasher(crypto.DefaultHashParams()))
	a.images = service.NewImageService(images)
	return a, nil
}

func (a *app) sessionStore(ctx context.Context) (session.Store, error) {
	switch a.cfg.SessionStore {
	case "memory":
		store := session.NewMemoryStore()
		session.StartCleanup(ctx, store, 10*time.Minute)
		return store, nil
	case "mysql":
		db, err := repository.NewMySQL(a.cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })

		store := session.NewMySQLStore(db, a.cfg.DBTimeout)
		if err := store.EnsureTable(ctx); err != nil {
			return nil, fmt.Errorf("creating sessions table: %w", err)
		}
		session.StartCleanup(ctx, store, time.Hour)
		return store, nil
	case "mongo":
		db, err := a.mongoDB(ctx)
		if err != nil {
			return nil, err
		}
		store := session.NewMongoStore(db, a.cfg.DBTimeout)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("creating session indexes: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q", a.cfg.SessionStore)
	}
}

// mongoDB connects on first use and shares the client between the data and
// session stores.
func (a *app) mongoDB(ctx context.Context) (*mongo.Database, error) {
	if a.mongo == nil {
		client, err := repository.NewMongo(ctx, a.cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		a.mongo = client
		a.closers = append(a.closers, client.Disconnect)
	}
	return a.mongo.Database(a.cfg.MongoDB), nil
}

func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			slog.Warn("closing connection", "error", err)
		}
	}
	a.closers = nil
}
