package main

import (
	"context"
	"os"
	"time"

	"dailymeow/internal/amqp"
	"dailymeow/internal/cli"
	"dailymeow/internal/config"
	"dailymeow/internal/log"
	"dailymeow/internal/sheets/google"
	"dailymeow/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateSheetsMirror)

	mirror, err := google.New(context.Background(), google.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", "error", err, "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := client.Close(); err != nil {
			logger.Error("AMQP close error", "error", err)
		}
	})

	logger.Info("Starting sheets worker", "sheet", cfg.GoogleSheetName, "queue", cfg.AMQPQueue)
	if err := worker.NewSheetsWorker(client, mirror).Run(ctx); err != nil {
		logger.Error("Sheets worker failed", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}
