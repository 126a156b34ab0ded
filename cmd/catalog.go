package main

import (
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the product catalog",
	Long:  "Imports the price master and GST table into Postgres or SQLite, and checks a catalog before it is used for quoting.",
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
