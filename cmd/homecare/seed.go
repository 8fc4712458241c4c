package main

import (
	"context"
	"fmt"

	"homecare/internal/db"
	"homecare/internal/seed"
	"homecare/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Sync the category catalog and optionally load demo data",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "fake-requests",
			Usage: "Number of demo requests to create",
			Value: 0,
		},
		&cli.BoolFlag{
			Name:  "reset",
			Usage: "Delete previously seeded demo requests first",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c.String("env-prefix"))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()
		logger := logrus.New()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logger.Info("connected to database")

		if err := seed.SeedCategories(ctx, logger, store.NewCategoryRepository(pool)); err != nil {
			return fmt.Errorf("failed to seed categories: %w", err)
		}

		count := c.Int("fake-requests")
		if count == 0 && !c.Bool("reset") {
			return nil
		}

		if err := seed.SeedFakeAddresses(ctx, logger, store.NewUserAddressRepository(pool)); err != nil {
			return fmt.Errorf("failed to seed fake addresses: %w", err)
		}

		err = seed.SeedFakeRequests(ctx, logger, store.NewRequestRepository(pool), seed.NewRand(), count, c.Bool("reset"))
		if err != nil {
			return fmt.Errorf("failed to seed fake requests: %w", err)
		}

		return nil
	},
}
