package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(crawlCmd)
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Runs one crawl and prints the number of new profiles.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, _, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Crawler.Run(cmd.Context())
		if err != nil {
			return fmt.Errorf("crawl failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d new records (%d discovered, %d skipped, %d failed) in %s\n",
			res.Saved, res.Discovered, res.Skipped, res.FetchFailures, res.Duration().Round(time.Millisecond))
		return nil
	},
}
