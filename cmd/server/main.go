// Command server wires the Kabale digital ID service: stores picked by
// configuration (postgres/redis/minio in deployment, in-memory for local
// runs), the HTTP router, and a graceful shutdown path.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	applicationservice "kabaleid/internal/application/service"
	appstore "kabaleid/internal/application/store"
	"kabaleid/internal/audit"
	"kabaleid/internal/card"
	"kabaleid/internal/digitalid"
	digitalidservice "kabaleid/internal/digitalid/service"
	idstore "kabaleid/internal/digitalid/store"
	"kabaleid/internal/identity/models"
	"kabaleid/internal/identity/secrets"
	identityservice "kabaleid/internal/identity/service"
	identitystore "kabaleid/internal/identity/store"
	"kabaleid/internal/kabale"
	kabalestore "kabaleid/internal/kabale/store"
	"kabaleid/internal/platform/config"
	"kabaleid/internal/platform/httpserver"
	"kabaleid/internal/platform/logger"
	"kabaleid/internal/platform/metrics"
	"kabaleid/internal/platform/middleware"
	"kabaleid/internal/session"
	sessionstore "kabaleid/internal/session/store"
	httptransport "kabaleid/internal/transport/http"
	"kabaleid/internal/verification"
	"kabaleid/pkg/domain"
	"kabaleid/pkg/platform/sentinel"
)

func main() {
	cfg := config.FromEnv()

	addr := pflag.String("addr", cfg.Addr, "listen address")
	designPath := pflag.String("design-config", cfg.DesignConfigPath, "YAML seed for the card design config")
	pflag.Parse()
	cfg.Addr = *addr
	cfg.DesignConfigPath = *designPath

	log := logger.New(cfg.IsProduction())
	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)

	// Persistence: postgres-backed when DATABASE_URL is set, in-memory
	// otherwise. The in-memory wiring serves local runs and tests only.
	var (
		identityStore interface {
			identityservice.Store
			verification.CitizenDirectory
		}
		kabaleStore   kabale.Store
		appStore      applicationservice.Store
		idStore       interface {
			digitalidservice.Store
			applicationservice.DigitalIDStore
		}
		designStore digitalidservice.DesignStore
		auditStore  audit.Store
		reviewTx    applicationservice.Tx
	)

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}

		identityStore = identitystore.NewPostgres(db)
		kabaleStore = kabalestore.NewPostgres(db)
		appStore = appstore.NewPostgres(db)
		idStore = idstore.NewPostgres(db)
		designStore = idstore.NewPostgresDesign(db)
		auditStore = audit.NewPostgres(db)
		reviewTx = newReviewPostgresTx(db)
		log.Info("using postgres storage")
	} else {
		identityStore = identitystore.NewInMemory()
		kabaleStore = kabalestore.NewInMemory()
		appStore = appstore.NewInMemory()
		idStore = idstore.NewInMemory()
		designStore = idstore.NewInMemoryDesign(digitalid.DefaultDesignConfig())
		auditStore = audit.NewInMemory()
		reviewTx = applicationservice.NewShardedTx()
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	// Sessions: redis in deployment, postgres alongside the main database,
	// memory as the last resort.
	var sessionStore session.Store
	switch {
	case cfg.RedisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return err
		}
		sessionStore = sessionstore.NewRedis(client)
		log.Info("using redis session store")
	case db != nil:
		sessionStore = sessionstore.NewPostgres(db)
	default:
		sessionStore = sessionstore.NewInMemory()
	}

	var publisher audit.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := kp.Close(closeCtx); err != nil {
				log.Warn("closing audit publisher", "error", err)
			}
		}()
		publisher = kp
		log.Info("publishing review events", "topic", cfg.AuditTopic)
	}

	var (
		photoGetter   card.PhotoStore
		photoUploader httptransport.PhotoUploader
	)
	if cfg.MinioEndpoint != "" {
		client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
			Secure: cfg.MinioUseSSL,
		})
		if err != nil {
			return err
		}
		photos := card.NewMinioPhotoStore(client, cfg.MinioBucket)
		if err := photos.EnsureBucket(ctx); err != nil {
			return err
		}
		photoGetter = photos
		photoUploader = photos
		log.Info("using minio photo store", "bucket", cfg.MinioBucket)
	}

	// Seed the design config from file once; afterwards the stored row wins.
	if cfg.DesignConfigPath != "" {
		seed, err := digitalid.LoadDesignConfig(cfg.DesignConfigPath)
		if err != nil {
			return err
		}
		if err := designStore.Put(ctx, seed); err != nil {
			return err
		}
		log.Info("seeded card design config", "path", cfg.DesignConfigPath)
	}

	identitySvc := identityservice.NewService(identityStore)
	sessionSvc := session.NewService(sessionStore, cfg.SessionTTL, m)
	kabaleSvc := kabale.NewService(kabaleStore)
	applicationSvc := applicationservice.NewService(
		appStore, idStore, kabaleStore, designStore, auditStore, publisher, reviewTx, m,
	)
	digitalIDSvc := digitalidservice.NewService(idStore, designStore)
	verifySvc := verification.NewService(idStore, identityStore, kabaleStore)

	if err := seedSystemAdmin(ctx, identityStore, log); err != nil {
		return err
	}

	encode := func(id domain.DigitalIDID) ([]byte, error) {
		return verification.QRPNG(cfg.BaseURL, id)
	}
	fetcher := card.NewFetcher(photoGetter, http.DefaultClient, cfg.LogoURL, encode, cfg.AssetTimeout, log, m)

	router := httptransport.NewRouter(httptransport.Deps{
		Auth:           httptransport.NewAuthHandler(identitySvc, sessionSvc, photoUploader, cfg.IsProduction(), log),
		Kabales:        httptransport.NewKabaleHandler(kabaleSvc, log),
		Applications:   httptransport.NewApplicationHandler(applicationSvc, log),
		DigitalIDs:     httptransport.NewDigitalIDHandler(digitalIDSvc, identityStore, kabaleStore, fetcher, cfg.BaseURL, m, log),
		Verify:         httptransport.NewVerifyHandler(verifySvc, log),
		Authenticator:  middleware.NewAuthenticator(sessionSvc, identitySvc),
		Logger:         log,
		Metrics:        m,
		MetricsHandler: promhttp.Handler(),
	})

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting kabale id server", "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// seedSystemAdmin bootstraps the first SYSTEM_ADMIN credential from the
// environment. Without it a fresh deployment has no one who can create
// kabales or kabale admins.
func seedSystemAdmin(ctx context.Context, store identityservice.Store, log *slog.Logger) error {
	email := os.Getenv("KABALE_ID_ADMIN_EMAIL")
	password := os.Getenv("KABALE_ID_ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	if _, err := store.FindUserByLogin(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}

	hash, err := secrets.Hash(password)
	if err != nil {
		return err
	}
	now := time.Now()
	if err := store.CreateUser(ctx, models.User{
		ID:           domain.NewUserID(),
		Role:         models.RoleSystemAdmin,
		FullName:     "System Administrator",
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		return err
	}
	log.Info("seeded system administrator", "email", email)
	return nil
}
