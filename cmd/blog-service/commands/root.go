package commands

import (
	"context"
	"fmt"
	"log"

	"github.com/gfdmit/blog-service/config"
	"github.com/gfdmit/blog-service/internal/app"
	"github.com/gfdmit/blog-service/internal/service"
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "blog-service",
	Short: "Blog publishing backend",
	Long: `Blog publishing backend serving posts, authors and comments.

Without a subcommand the HTTP server is started.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the command line against the process arguments.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file overloading the environment")
}

func loadConfig() (*config.Config, error) {
	conf, err := config.New(envFile)
	if err != nil {
		return nil, fmt.Errorf("error when reading config: %w", err)
	}
	return conf, nil
}

// withService opens the configured repository for an administrative command.
func withService(ctx context.Context, fn func(context.Context, *service.Service) error) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	repo, err := app.OpenRepository(*conf)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Println("[CLI] close repository:", err)
		}
	}()
	return fn(ctx, service.New(repo))
}
