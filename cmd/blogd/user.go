package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"blog/backend/internal/auth"
	"blog/backend/internal/db"
	"blog/backend/internal/reconcile"
	"blog/backend/internal/store/postgres"
)

var (
	userName     string
	userPassword string
	userIsAuthor bool
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

// Authors can only be provisioned here; sign-up over HTTP creates readers.
var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closeLog, err := setup()
		if err != nil {
			return err
		}
		defer closeLog()

		pool, err := db.NewPool(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		st := postgres.New(pool)
		svc := auth.NewService(st, reconcile.New(st, logger, nil), auth.WithLogger(logger))
		u, err := svc.CreateUser(cmd.Context(), userName, userPassword, userIsAuthor)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) author=%t\n", u.Name, u.ID, u.IsAuthor)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userName, "name", "", "user name")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "password")
	userCreateCmd.Flags().BoolVar(&userIsAuthor, "author", false, "grant author role")
	userCreateCmd.MarkFlagRequired("name")
	userCreateCmd.MarkFlagRequired("password")
	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userCmd)
}
