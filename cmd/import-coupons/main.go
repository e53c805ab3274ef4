// Command import-coupons bulk-creates coupons from a CSV file with the
// columns code,kind,value,maxUses,expiresAt.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ArowuTest/raffle-backend/internal/config"
	mongorepo "github.com/ArowuTest/raffle-backend/internal/repositories/mongodb"
	"github.com/ArowuTest/raffle-backend/internal/services"
	"github.com/ArowuTest/raffle-backend/internal/utils"
	"github.com/ArowuTest/raffle-backend/pkg/mongodb"
	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "parse and report without writing")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: import-coupons [-dry-run] <file.csv>")
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}
	cfg, err := config.LoadUnchecked()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := run(context.Background(), cfg, flag.Arg(0), *dryRun); err != nil {
		slog.Error("Import failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, path string, dryRun bool) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	coupons, rowErrors, err := utils.ParseCouponCSV(file)
	if err != nil {
		return err
	}
	for _, rowErr := range rowErrors {
		slog.Warn("Skipping row", "error", rowErr.Error())
	}
	if dryRun {
		slog.Info("Dry run complete", "valid", len(coupons), "rejected", len(rowErrors))
		return nil
	}

	client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, cfg.MongoDB.ConnectTimeout)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDB.Database)
	if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	couponService := services.NewCouponService(
		mongorepo.NewCouponRepository(db),
		services.NewSystemConfigService(mongorepo.NewSystemConfigRepository(db), mongorepo.NewRaffleRepository(db)),
	)

	created, skipped := 0, len(rowErrors)
	for _, coupon := range coupons {
		active := coupon.Active
		_, err := couponService.CreateCoupon(ctx, services.CouponInput{
			Code:      coupon.Code,
			Kind:      coupon.Kind,
			Value:     coupon.Value,
			Active:    &active,
			ExpiresAt: coupon.ExpiresAt,
			MaxUses:   coupon.MaxUses,
		})
		if err != nil {
			slog.Warn("Coupon not created", "code", coupon.Code, "error", err)
			skipped++
			continue
		}
		created++
	}

	slog.Info("Coupon import finished", "created", created, "skipped", skipped)
	return nil
}
