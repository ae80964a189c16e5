package commands

import (
	"context"
	"log"

	"github.com/gfdmit/blog-service/internal/app"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}

	if err := app.Run(ctx, *conf); err != nil {
		return err
	}

	log.Println("[SHUTDOWN] service shut down gracefully")
	return nil
}
