package main

import (
	"fmt"

	"dietcoach/db"

	"github.com/spf13/cobra"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the MongoDB indexes and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := db.Connect(cmd.Context(), cfg.MongoURI)
		if err != nil {
			return err
		}
		defer disconnect(client)

		if err := db.EnsureIndexes(cmd.Context(), client.Database(cfg.MongoDB)); err != nil {
			return err
		}
		for coll, models := range db.Indexes() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d index(es)\n", coll, len(models))
		}
		return nil
	},
}
