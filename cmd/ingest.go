package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jekabolt/grbpwr-reports/app"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <order-id>...",
	Short: "Recompute the fact rows of the given orders",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseOrderIds(args)
		if err != nil {
			return err
		}
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		return app.New(cfg).IngestOrders(context.Background(), ids)
	},
}

func parseOrderIds(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid order id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
