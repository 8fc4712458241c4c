package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"homecare/internal/intake"
	"homecare/pkg/types"

	"github.com/k0kubun/pp/v3"
	"github.com/urfave/cli/v2"
)

var normalizeCommand = &cli.Command{
	Name:      "normalize",
	Usage:     "Validate a JSON payload file offline and print the canonical record",
	ArgsUsage: "<payload.json>",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:     "category",
			Aliases:  []string{"c"},
			Usage:    "Category id the payload is submitted under",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "grace-sec",
			Usage: "Tolerance for scheduled times in the past",
			Value: 30,
		},
	},
	Action: normalize,
}

// acceptAll answers every referential check with yes; there is no database
// behind the normalize command.
type acceptAll struct{}

func (acceptAll) Exists(context.Context, types.Entity, int64) (bool, error) {
	return true, nil
}

func normalize(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one payload file")
	}

	file, err := os.Open(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to open payload: %w", err)
	}
	defer file.Close()

	payload := make(intake.Payload)

	dec := json.NewDecoder(file)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	validator := intake.NewValidator(acceptAll{}, time.Duration(c.Int("grace-sec"))*time.Second)

	record, err := intake.Normalize(c.Context, validator, c.Int("category"), payload)

	var verrs intake.ValidationErrors
	if errors.As(err, &verrs) {
		pp.Println(verrs)
		return cli.Exit("payload is invalid", 1)
	}
	if err != nil {
		return err
	}

	pp.Println(record)
	return nil
}
