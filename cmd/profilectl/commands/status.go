package commands

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Shows the last completed crawl and the number of stored profiles.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, _, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		status, err := a.Profiles.GetStatus(cmd.Context())
		if err != nil {
			return err
		}

		lastRun := "never"
		if status.LastRun != nil {
			lastRun = status.LastRun.Local().Format(time.DateTime)
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Last run", "Total records", "Crawl in progress"})
		t.AppendRow(table.Row{lastRun, status.TotalRecords, status.CrawlInProgress})
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
