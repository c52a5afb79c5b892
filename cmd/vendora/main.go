package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Import seeders so their init() funcs run and register themselves.
	_ "github.com/vendora/vendora/database/seeders"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vendora",
	Short: "Vendora — marketplace server CLI",
	Long:  "Vendora is a role-based marketplace backend. Use this CLI to run and manage the server.",
}

func init() {
	// Server
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	// Database
	rootCmd.AddCommand(seedCmd)
}
