package commands

import (
	"log"
	"os"
	"sort"
	"strconv"

	"chessbridge-backend/lib/scrapers/chesserp"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var priceList *string
var priceDate *string

func init() {
	priceList = priceCmd.Flags().String("list", "4", "Price list code.")
	priceDate = priceCmd.Flags().String("date", "", "ISO date, defaults to today.")
	rootCmd.AddCommand(priceCmd)
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var priceCmd = &cobra.Command{
	Use:   "price <article-id>",
	Short: "Prints the raw price entries for an article.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := createClient()
		result, err := client.Prices(cmd.Context(), chesserp.PricesRequest{
			ArticleID: args[0],
			List:      *priceList,
			Date:      *priceDate,
		})
		if err != nil {
			log.Fatal(err)
		}

		if len(result.Entries) == 0 {
			log.Printf("no matching entries; sample keys: %v", result.SampleKeys)
			return
		}

		// raw entries have no fixed schema, print whatever keys showed up
		keys := map[string]bool{}
		for _, entry := range result.Entries {
			for k := range entry {
				keys[k] = true
			}
		}
		var header []string
		for k := range keys {
			header = append(header, k)
		}
		sort.Strings(header)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		headerRow := table.Row{}
		for _, k := range header {
			headerRow = append(headerRow, k)
		}
		t.AppendHeader(headerRow)
		for _, entry := range result.Entries {
			row := table.Row{}
			for _, k := range header {
				row = append(row, entry[k])
			}
			t.AppendRow(row)
		}
		t.Render()
	},
}
