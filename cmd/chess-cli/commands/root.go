package commands

import (
	"context"
	"fmt"
	"os"

	"chessbridge-backend/lib/configutil"
	"chessbridge-backend/lib/scrapers/chesserp"
	"chessbridge-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chess-cli",
	Short: "chess-cli queries ChessERP directly, for poking at deployments and validating the alias tables.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type Config struct {
	Chess chesserp.ClientOptions `json:"chess"`
}

func createClient() *chesserp.Client {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	client, err := chesserp.NewClient(cfg.Chess)
	if err != nil {
		serviceutil.Fatal("failed to initialize chesserp client", err)
	}
	return client
}
