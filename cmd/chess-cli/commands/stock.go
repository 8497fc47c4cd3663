package commands

import (
	"encoding/json"
	"log"
	"os"

	"chessbridge-backend/lib/scrapers/chesserp"

	"github.com/spf13/cobra"
)

var stockDeposit *int

func init() {
	stockDeposit = stockCmd.Flags().Int("deposit", 1, "Deposit number.")
	rootCmd.AddCommand(stockCmd)
}

var stockCmd = &cobra.Command{
	Use:   "stock <article-id>",
	Short: "Prints the stock row for an article in a deposit.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := createClient()
		record, found, err := client.Stock(cmd.Context(), chesserp.StockRequest{
			ArticleID: args[0],
			Deposit:   *stockDeposit,
		})
		if err != nil {
			log.Fatal(err)
		}
		if !found {
			log.Print("no stock row found")
			return
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(record)
	},
}
