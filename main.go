package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dbos-inc/dbos-transact-golang/dbos"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"chat-backend/config"
	"chat-backend/handlers"
	"chat-backend/logger"
	"chat-backend/migrations"
	"chat-backend/observability"
	"chat-backend/services"
	"chat-backend/store"
	"chat-backend/workflows"
)

// backend is the storage surface shared by services and workflows
type backend interface {
	services.ConversationStore
	services.SummaryStore
	workflows.MessageStore
}

func main() {
	// A missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	shutdownTracing, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	var (
		st backend
		db *sql.DB
	)
	if cfg.StoreDriver == config.StoreDriverMemory {
		st = store.NewMemory()
		log.Warn().Msg("Using in-memory store, data is lost on restart")
	} else {
		db, err = openDatabase(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()
		st = store.NewPostgres(db)
	}

	chatWorkflows := workflows.NewChatWorkflows(st, log)
	var wf services.ConversationWorkflows
	if cfg.DBOSEnabled {
		dbosCtx, err := newDBOSContext(cfg)
		if err != nil {
			return err
		}

		// Register workflows with DBOS (MUST be before Launch)
		chatWorkflows.Register(dbosCtx)

		// Launch DBOS (starts workflow recovery)
		if err := dbos.Launch(dbosCtx); err != nil {
			return err
		}
		defer dbos.Shutdown(dbosCtx, cfg.ShutdownTimeout)
		log.Info().Msg("DBOS initialized - durable workflows enabled")
		wf = workflows.NewDurableRunner(dbosCtx, chatWorkflows)
	} else {
		wf = workflows.NewDirectRunner(chatWorkflows)
	}

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.RouterConfig{
		ServiceName:    cfg.ServiceName,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		BodyLimitBytes: cfg.BodyLimitBytes,
		EnableTracing:  cfg.EnableTracing,
		Logger:         log,
	},
		services.NewConversationService(st, wf, log),
		services.NewSummaryService(st, log),
	)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newDBOSContext roots DBOS in context.Background() so a shutdown signal does not
// cancel in-flight workflows. The deferred dbos.Shutdown in run executes after
// the HTTP server has drained.
func newDBOSContext(cfg *config.Config) (dbos.DBOSContext, error) {
	return dbos.NewDBOSContext(context.Background(), dbos.Config{
		DatabaseURL: cfg.DatabaseURL,
		AppName:     cfg.DBOSAppName,
	})
}

func openDatabase(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Info().Msg("Connected to PostgreSQL database")

	if err := migrations.Up(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
