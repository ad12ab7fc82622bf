package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lettermail/go-lettermail-server/global"
	"github.com/lettermail/go-lettermail-server/repository"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

// migrateCmd applies all pending database migrations
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long:  "Apply pending database migrations against the database configured in the configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		err := global.LoadConfig(configFile, &global.Conf)
		check(err)

		db, err := repository.NewDB(global.Conf.Database.DSN)
		check(err)
		defer db.Close()

		err = repository.RunMigrations(context.Background(), db)
		check(err)

		fmt.Println("migrations applied")
	},
}
