package commands

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/northlane-data/safaristats/internal/pipeline"
)

const (
	userCmdUse   = "user <from_path> <to_path>"
	userCmdShort = "Run the USER-TOP10 pipeline over a rolling seven-day log window"
	userArgCount = 2
)

// NewUserCommand creates the user subcommand.
func NewUserCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   userCmdUse,
		Short: userCmdShort,
		Args:  cobra.ExactArgs(userArgCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigForPaths(configPath, args[0], args[1])
			if err != nil {
				return err
			}

			summary, err := pipeline.RunUser(cfg, args[0], args[1])
			if err != nil {
				return fmt.Errorf("run user pipeline: %w", err)
			}

			printUserSummary(cmd.OutOrStdout(), summary)

			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, configFlag, "", configFlagUsage)

	return cmd
}

func printUserSummary(w io.Writer, summary pipeline.UserSummary) {
	color.New(color.FgGreen).Fprintf(w, "user pipeline complete\n")
	fmt.Fprintf(w, "  days processed: %s\n", humanize.Comma(int64(summary.DaysProcessed)))
	fmt.Fprintf(w, "  rows read:      %s\n", humanize.Comma(int64(summary.RowsRead)))
	fmt.Fprintf(w, "  rows dropped:   %s\n", humanize.Comma(int64(summary.RowsDropped)))
	fmt.Fprintf(w, "  report:         %s\n", summary.ReportPath)
	fmt.Fprintf(w, "  duration:       %s\n", summary.Duration.Round(1e6))
}
