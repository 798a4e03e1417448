// Command artikujt-refresh tells every running dashboard instance to drop its
// cached sheet, e.g. from a cron job after the sheet was edited.
package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"

	"artikujt/internal/amqp"
	"artikujt/internal/cli"
	applog "artikujt/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to broadcast a refresh",
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	origin := "cli-" + uuid.NewString()
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, origin)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	source := cfg.SourceLocation()
	if err := client.PublishRefresh(ctx, source); err != nil {
		logger.Error("Failed to publish refresh",
			applog.FieldError, err,
			applog.FieldSource, source,
			applog.FieldOperation, applog.OpPublish)
		cancel()
		os.Exit(1)
	}

	logger.Info("Refresh broadcast sent",
		applog.FieldSource, source,
		applog.FieldInstanceID, origin)
}
