// Command bookkeep-import loads a legacy daily workbook into the ledger.
//
//	bookkeep-import -month 2026-01 -file january.xlsx
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bookkeep/internal/amqp"
	"bookkeep/internal/cli"
	"bookkeep/internal/config"
	"bookkeep/internal/core"
	"bookkeep/internal/log"
	"bookkeep/internal/services"
)

func main() {
	month := flag.String("month", "", "month of the workbook, YYYY-MM")
	file := flag.String("file", "", "path to the .xlsx workbook")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentImport)

	key, err := core.ParseMonthKey(*month)
	if err != nil || *file == "" {
		fmt.Fprintln(os.Stderr, "usage: bookkeep-import -month YYYY-MM -file workbook.xlsx")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, logger, cfg, key, *file))
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config, key core.MonthKey, path string) int {
	f, err := os.Open(path)
	if err != nil {
		logger.Error("Failed to open workbook", "error", err, "file", path)
		return 1
	}
	defer f.Close()

	be, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to open data backend", "error", err, "backend", cfg.DataBackend)
		return 1
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Warn("Backend cleanup error", "error", err)
		}
	}()

	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, export will wait for the worker's periodic pass", "error", err)
		} else {
			defer client.Close()
			events = client
		}
	}

	svc := services.NewImportService(be.Store, be.Markers, events, cfg.ImportConcurrency)
	res, err := svc.ImportWorkbook(ctx, key, f)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(res); encErr != nil {
		logger.Error("Failed to write result", "error", encErr)
	}
	if err != nil {
		logger.Error("Import failed", "error", err, "month", key.String(), "file", path)
		return 1
	}
	if res.Duplicate {
		logger.Info("Workbook was already imported", "month", key.String(), "checksum", res.Checksum)
	}
	return 0
}
