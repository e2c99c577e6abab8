package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/db"
	"github.com/danielhkuo/quickly-vote/election"
	"github.com/danielhkuo/quickly-vote/evm"
	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/router"
)

func main() {
	// A missing .env file is fine; real environment variables still apply
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()

	// Connect to the ledger
	l, electionID, closeLedger, err := openLedger(ctx, cfg, clock)
	if err != nil {
		slog.Error("ledger setup failed", "ledger", cfg.Ledger, "error", err)
		os.Exit(1)
	}
	defer closeLedger()
	slog.Info("Ledger ready", "ledger", cfg.Ledger, "election_id", electionID)

	if _, ok := l.(ledger.Administrator); ok {
		slog.Info("Admin key", "admin_key", auth.GenerateAdminKey(electionID, cfg.AdminKeySalt))
	}

	if err := autoStart(ctx, l, cfg.VotingDuration); err != nil {
		slog.Error("failed to start election", "error", err)
		os.Exit(1)
	}

	svc := election.NewService(l, clock, serviceConfig(cfg))

	// Create router
	mux := router.NewRouter(svc, electionID, cfg)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	g, gctx := errgroup.WithContext(ctx)

	// Sync loop
	g.Go(func() error {
		return svc.Run(gctx)
	})

	// Start server
	g.Go(func() error {
		slog.Info("Listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Stop the loop before the server so stream clients see a clean close
	g.Go(func() error {
		<-gctx.Done()
		svc.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server closed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server closed")
}

// openLedger builds the configured ledger and returns the election ID the
// admin key is derived from
func openLedger(ctx context.Context, cfg cliparse.Config, clock clockwork.Clock) (ledger.Ledger, string, func(), error) {
	switch cfg.Ledger {
	case cliparse.LedgerMemory:
		return ledger.NewMemory(clock, cfg.Candidates...), uuid.NewString(), func() {}, nil

	case cliparse.LedgerSQL:
		conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
		if err != nil {
			return nil, "", nil, err
		}

		// Create schema (tables)
		if err := db.CreateSchema(conn); err != nil {
			conn.Close()
			return nil, "", nil, err
		}
		slog.Info("Database schema ready")

		l := db.NewLedger(conn, clock, cfg.VoterSalt)
		electionID, err := l.SetupElection(ctx, cfg.Candidates)
		if err != nil {
			conn.Close()
			return nil, "", nil, fmt.Errorf("election setup failed: %w", err)
		}
		return l, electionID, closer(conn), nil

	case cliparse.LedgerEVM:
		l, err := evm.Dial(ctx, cfg.EthRPCURL, cfg.Contract, clock)
		if err != nil {
			return nil, "", nil, fmt.Errorf("JSON-RPC dial failed: %w", err)
		}
		return l, strings.ToLower(cfg.Contract), l.Close, nil
	}
	return nil, "", nil, fmt.Errorf("unknown ledger %q", cfg.Ledger)
}

func closer(conn *sql.DB) func() {
	return func() {
		if err := conn.Close(); err != nil {
			slog.Warn("database close failed", "error", err)
		}
	}
}

// autoStart opens voting at boot when a duration is configured and the
// election has not started yet
func autoStart(ctx context.Context, l ledger.Ledger, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	admin, ok := l.(ledger.Administrator)
	if !ok {
		slog.Warn("voting duration ignored; ledger does not support setup")
		return nil
	}

	info, err := l.PhaseInfo(ctx)
	if err != nil {
		return err
	}
	if info.Started {
		slog.Info("Election already started", "deadline", info.Deadline)
		return nil
	}

	info, err = admin.StartElection(ctx, d)
	if err != nil {
		return err
	}
	slog.Info("Election started", "deadline", info.Deadline)
	return nil
}

func serviceConfig(cfg cliparse.Config) election.Config {
	svcCfg := election.DefaultConfig()
	svcCfg.SubmitTimeout = cfg.SubmitTimeout
	svcCfg.Loop.Interval = cfg.PollInterval
	if floor := 2 * cfg.PollInterval; svcCfg.Loop.MaxInterval < floor {
		svcCfg.Loop.MaxInterval = floor
	}
	return svcCfg
}
