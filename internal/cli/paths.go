package cli

import (
	"time"

	"github.com/spf13/cobra"
)

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show remembered conversion paths",
	Long:  "Show the last source and destination paths remembered per conversion direction.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPaths(current)
	},
}

func runPaths(a *app) error {
	records, err := a.store.All()
	if err != nil {
		return err
	}

	if len(records) == 0 {
		a.printf("No conversion paths remembered yet.\n")
		return nil
	}
	for _, rec := range records {
		a.printf("%s: %s -> %s (updated %s)\n",
			rec.Kind, rec.SourcePath, rec.DestPath, rec.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}
