package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gfdmit/blog-service/internal/service"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	authorName   string
	authorEmail  string
	authorUserID int64
)

var authorCmd = &cobra.Command{
	Use:   "author",
	Short: "Manage authors",
}

var authorCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an author, optionally linked to a user",
	Long: `Create an author, optionally linked to a user.

Examples:
  blog-service author create --name "Jane Doe" --email jane@example.com --user-id 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.AuthorInput{Name: authorName, Email: authorEmail}
		if cmd.Flags().Changed("user-id") {
			in.UserID = &authorUserID
		}
		return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
			author, err := svc.CreateAuthor(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "author %d (%s) created\n", author.ID, author.Name)
			return nil
		})
	},
}

var authorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List authors",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
			authors, err := svc.ListAuthors(ctx)
			if err != nil {
				return err
			}
			if len(authors) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no authors")
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetAutoWrapText(false)
			table.SetHeader([]string{"ID", "Name", "Email", "User"})
			for _, a := range authors {
				user := "-"
				if a.UserID != nil {
					user = strconv.FormatInt(*a.UserID, 10)
				}
				table.Append([]string{strconv.FormatInt(a.ID, 10), a.Name, a.Email, user})
			}
			table.Render()
			return nil
		})
	},
}

var authorDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an author together with its posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid author id %q", args[0])
		}
		return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
			if err := svc.DeleteAuthor(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "author %d deleted\n", id)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(authorCmd)
	authorCmd.AddCommand(authorCreateCmd, authorListCmd, authorDeleteCmd)

	authorCreateCmd.Flags().StringVar(&authorName, "name", "", "Author display name")
	authorCreateCmd.Flags().StringVar(&authorEmail, "email", "", "Author email (unique)")
	authorCreateCmd.Flags().Int64Var(&authorUserID, "user-id", 0, "User to link the author to")
	authorCreateCmd.MarkFlagRequired("name")
	authorCreateCmd.MarkFlagRequired("email")
}
