package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/msgraph-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/msgraph-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/msgraph-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/msgraph-cli/internal/core/services"
	"github.com/custodia-labs/msgraph-cli/internal/logger"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cli.SetVersion(version)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configStore, err := file.NewConfigStore("")
	if err != nil {
		log.Printf("failed to create config store: %v", err)
		return 1
	}
	settings, err := configStore.Load()
	if err != nil {
		log.Printf("failed to load settings: %v", err)
		return 1
	}

	// Schema commands work without credentials: $metadata is public.
	auth, err := microsoft.NewAuthenticator(ctx, settings.Auth)
	if errors.Is(err, microsoft.ErrAuthRequired) {
		auth, err = microsoft.NoAuth{}, nil
	}
	if err != nil {
		log.Printf("failed to configure authentication: %v", err)
		return 1
	}

	client := microsoft.NewClient(settings.BaseURL,
		microsoft.WithHTTPDoer(&http.Client{Timeout: settings.RequestTimeout.Std()}),
		microsoft.WithAuthenticator(auth),
		microsoft.WithRateLimiter(microsoft.NewRateLimiterWithConfig(microsoft.RateLimitConfigFrom(settings.RateLimit))),
		microsoft.WithSDKVersion("msgraph-cli/"+version),
	)
	metadata := microsoft.NewMetadataFetcher(client, settings.MetadataCache, settings.FetchTimeout.Std())

	schemaSvc := services.NewSchemaService(metadata)
	graphSvc := services.NewGraphService(client, schemaSvc)
	accountSvc := services.NewAccountService(client)

	// Inject services into CLI commands
	cli.SetServices(&cli.Services{
		Schema:  schemaSvc,
		Graph:   graphSvc,
		Account: accountSvc,
		Config:  configStore,
	})

	if err := cli.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
