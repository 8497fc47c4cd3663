package commands

import (
	"log"
	"os"

	"chessbridge-backend/lib/scrapers/chesserp"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var articlesLimit *int

func init() {
	articlesLimit = articlesCmd.Flags().Int("limit", 50, "Maximum articles to print.")
	rootCmd.AddCommand(articlesCmd)
}

var articlesCmd = &cobra.Command{
	Use:   "articles [query]",
	Short: "Lists catalog articles, optionally filtered by id/description substring.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		query := ""
		if len(args) > 0 {
			query = args[0]
		}

		client := createClient()
		articles, err := client.Articles(cmd.Context(), chesserp.ArticlesRequest{
			Query: query,
			Limit: *articlesLimit,
		})
		if err != nil {
			log.Fatal(err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Id", "Description", "Units/pack", "Barcode"})
		for _, a := range articles {
			units := ""
			if a.UnitsPerPack != nil {
				units = fmtFloat(*a.UnitsPerPack)
			}
			t.AppendRow(table.Row{a.ID, a.Description, units, a.Barcode})
		}
		t.Render()
	},
}
