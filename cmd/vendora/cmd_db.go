package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vendora/vendora/config"
	"github.com/vendora/vendora/database/seeders"
	"github.com/vendora/vendora/pkg/database"
)

// bootDB loads config and opens the database connection.
func bootDB(ctx context.Context) error {
	if err := config.Load(); err != nil {
		return err
	}
	return database.Connect(ctx)
}

// vendora seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := bootDB(ctx); err != nil {
			return err
		}
		defer database.Disconnect(context.Background())

		fmt.Println("Running seeders…")
		return seeders.RunAll(ctx, database.DB())
	},
}
