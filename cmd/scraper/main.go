package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"studenteats/config"
	"studenteats/scraper"
	"studenteats/services"
	"studenteats/utils"
)

var (
	sweepOnly = flag.Bool("sweep-only", false, "only delete last week's menu rows")
	skipSweep = flag.Bool("skip-sweep", false, "scrape and ingest without the retention sweep")
	outFile   = flag.String("out", "", "also write the scraped menus to this file")
)

func main() {
	flag.Parse()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("scrape job failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	db, err := config.OpenDB(cfg)
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}
	started := time.Now()
	var report strings.Builder
	fmt.Fprintf(&report, "Menu job started %s\n\n", started.UTC().Format(time.RFC3339))

	if !*sweepOnly {
		upload, scrapeErrs := scraper.New().ScrapeAll(ctx, scraper.DefaultHalls)
		for _, err := range scrapeErrs {
			slog.Warn("hall scrape failed", "err", err)
			fmt.Fprintf(&report, "scrape error: %v\n", err)
		}
		if len(upload) == 0 {
			return fmt.Errorf("no dining halls scraped (%d errors)", len(scrapeErrs))
		}

		body, err := json.MarshalIndent(upload, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding menus: %w", err)
		}
		if *outFile != "" {
			if err := os.WriteFile(*outFile, body, 0o644); err != nil {
				slog.Warn("writing menu file failed", "path", *outFile, "err", err)
			}
		}
		if cfg.S3Bucket != "" {
			archive, err := utils.NewMenuArchive(ctx, cfg.AWSRegion, cfg.S3Bucket)
			if err == nil {
				var key string
				if key, err = archive.Put(ctx, started, body); err == nil {
					slog.Info("menus archived", "bucket", cfg.S3Bucket, "key", key)
					fmt.Fprintf(&report, "archived to s3://%s/%s\n", cfg.S3Bucket, key)
				}
			}
			if err != nil {
				slog.Warn("menu archive failed", "err", err)
			}
		}

		res, err := services.NewMenuService(services.NewFoodService(db, nil)).Ingest(ctx, upload)
		if err != nil {
			return err
		}
		slog.Info("menus ingested",
			"processed", res.ItemsProcessed,
			"created", res.ItemsCreated,
			"existing", res.ItemsExisting,
			"failed", res.ItemsFailed)
		fmt.Fprintf(&report, "halls: %d\nitems processed: %d\ncreated: %d\nalready present: %d\nfailed: %d\n",
			len(upload), res.ItemsProcessed, res.ItemsCreated, res.ItemsExisting, res.ItemsFailed)
		for _, e := range res.Errors {
			fmt.Fprintf(&report, "  %s\n", e)
		}
	}

	if !*skipSweep {
		sweep, err := services.NewRetentionService(db).SweepPastWeek(ctx, time.Now())
		if err != nil {
			// the menus are in; an old week lingering is not worth failing the job
			slog.Warn("retention sweep failed", "err", err)
			fmt.Fprintf(&report, "\nretention sweep failed: %v\n", err)
		} else {
			fmt.Fprintf(&report, "\nretention sweep: deleted %d of %d matched rows, %d remain\n",
				sweep.Deleted, sweep.Matched, sweep.Kept)
		}
	}

	if cfg.ReportEmail != "" && cfg.SESFrom != "" {
		mailer, err := utils.NewMailer(ctx, cfg.AWSRegion, cfg.SESFrom)
		if err == nil {
			err = mailer.Send(ctx, cfg.ReportEmail, "Dining menu update "+utils.ISODate(started), report.String())
		}
		if err != nil {
			slog.Warn("report email failed", "err", err)
		}
	}
	slog.Info("scrape job finished", "took", time.Since(started).String())
	return nil
}
