package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gfdmit/blog-service/internal/service"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage API users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create USERNAME",
	Short: "Create a user and print its API token",
	Long: `Create a user and print its API token.

The token is stored hashed and cannot be shown again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
			user, token, err := svc.CreateUser(ctx, service.UserInput{Username: args[0]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d (%s) created\ntoken: %s\n", user.ID, user.Username, token)
			return nil
		})
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a user; its author profile and comments are kept unlinked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[0])
		}
		return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
			if err := svc.DeleteUser(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d deleted\n", id)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd, userDeleteCmd)
}
