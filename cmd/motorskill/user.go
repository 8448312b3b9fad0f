package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mind-engage/motorskill/internal/rbac"
	"github.com/mind-engage/motorskill/internal/users"
)

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage evaluator accounts",
	}
	cmd.AddCommand(newUserAddCommand(), newUserListCommand())
	return cmd
}

func newUserAddCommand() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "add <username> <evaluator|viewer|admin>",
		Short: "Create or update an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !rbac.ValidRole(args[1]) {
				return fmt.Errorf("invalid role %q", args[1])
			}
			if password == "" {
				password = os.Getenv("MOTORSKILL_USER_PASSWORD")
			}
			ctx := cmd.Context()
			a, err := openApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			ins, upd, err := a.users.Upsert(ctx, []users.Row{{Username: args[0], Role: args[1], Password: password}})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inserted: %d  updated: %d\n", ins, upd)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (or MOTORSKILL_USER_PASSWORD)")
	return cmd
}

func newUserListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			list, err := a.users.List(ctx, "")
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"ID", "Username", "Role"})
			for _, u := range list {
				table.Append([]string{u.ID, u.Username, u.Role})
			}
			table.Render()
			return nil
		},
	}
}
