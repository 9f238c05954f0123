// Package server wires the wallet authentication service together: storage,
// challenge cache, proof verifier, account service client and the HTTP
// endpoint, and runs it until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/walletauth/internal/cryptox"
	"github.com/dmitrijs2005/walletauth/internal/dbx"
	"github.com/dmitrijs2005/walletauth/internal/logging"
	"github.com/dmitrijs2005/walletauth/internal/server/accounts"
	"github.com/dmitrijs2005/walletauth/internal/server/challenges"
	"github.com/dmitrijs2005/walletauth/internal/server/config"
	"github.com/dmitrijs2005/walletauth/internal/server/repositories/identities"
	"github.com/dmitrijs2005/walletauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/walletauth/internal/server/rest"
	"github.com/dmitrijs2005/walletauth/internal/server/rola"
	"github.com/dmitrijs2005/walletauth/internal/server/services"
	"github.com/redis/go-redis/v9"
)

const startupTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *redis.Client
	auth   *services.AuthService
}

func NewApp(c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	rm, err := repomanager.New(c.DatabaseDriver)
	if err != nil {
		return nil, err
	}

	db, err := dbx.Open(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	rdb, err := challenges.Connect(ctx, c.RedisURL)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("redis init error: %w", err)
	}

	vault, err := cryptox.NewVault(c.SecretKey, cryptox.Mode(c.CipherMode))
	if err != nil {
		_ = db.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("vault init error: %w", err)
	}

	httpClient := &http.Client{Timeout: c.RequestTimeout}

	opts := []rola.Option{rola.WithLogger(logger.With("module", "rola"))}
	if c.GatewayURL != "" {
		opts = append(opts, rola.WithOwnerKeys(rola.NewGatewayClient(c.GatewayURL, httpClient)))
	}
	verifier := rola.NewVerifier(rola.Settings{
		DAppDefinitionAddress: c.DAppDefinitionAddress,
		NetworkID:             byte(c.NetworkID),
		ExpectedOrigin:        c.ExpectedOrigin,
	}, opts...)

	acc := accounts.NewClient(c.AccountServiceURL, c.AccountServiceToken, httpClient,
		accounts.WithDeleteMode(accounts.DeleteMode(c.AccountDeleteMode)))

	// database lookup is only valid with the pgx driver, see config.Validate
	var usernames services.UsernameDirectory = acc
	if c.AccountLookup == config.LookupDatabase {
		usernames = identities.NewPostgresRepository(db)
	}

	auth := services.NewAuthService(services.AuthDeps{
		DB:          db,
		RepoManager: rm,
		Challenges:  challenges.NewStore(rdb, c.RedisNamespace, c.ChallengeTTL),
		Verifier:    verifier,
		Accounts:    acc,
		Usernames:   usernames,
		Vault:       vault,
	}, c, logger)

	logger.Info(ctx, "App configured",
		"application", c.ApplicationName,
		"network_id", c.NetworkID,
		"origin", c.ExpectedOrigin,
		"account_lookup", c.AccountLookup,
		"account_delete_mode", c.AccountDeleteMode)

	return &App{config: c, logger: logger, db: db, redis: rdb, auth: auth}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := rest.NewHTTPServer(app.config, app.logger, app.auth)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	if err := app.redis.Close(); err != nil {
		app.logger.Warn(ctx, "redis close", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
