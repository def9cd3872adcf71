// Package commands implements CLI command handlers for safaristats.
package commands

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/northlane-data/safaristats/internal/pipeline"
	"github.com/northlane-data/safaristats/pkg/config"
)

const (
	cameraCmdUse    = "camera <from_path> <to_path>"
	cameraCmdShort  = "Run the CAM-TOP100 pipeline over a rolling seven-day log window"
	cameraArgCount  = 2
	configFlag      = "config"
	configFlagUsage = "path to a safaristats config file"
)

// NewCameraCommand creates the camera subcommand.
func NewCameraCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   cameraCmdUse,
		Short: cameraCmdShort,
		Args:  cobra.ExactArgs(cameraArgCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigForPaths(configPath, args[0], args[1])
			if err != nil {
				return err
			}

			summary, err := pipeline.RunCamera(cfg, args[0], args[1])
			if err != nil {
				return fmt.Errorf("run camera pipeline: %w", err)
			}

			printCameraSummary(cmd.OutOrStdout(), summary)

			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, configFlag, "", configFlagUsage)

	return cmd
}

func printCameraSummary(w io.Writer, summary pipeline.CameraSummary) {
	color.New(color.FgGreen).Fprintf(w, "camera pipeline complete\n")
	fmt.Fprintf(w, "  days processed: %s\n", humanize.Comma(int64(summary.DaysProcessed)))
	fmt.Fprintf(w, "  rows read:      %s\n", humanize.Comma(int64(summary.RowsRead)))
	fmt.Fprintf(w, "  rows dropped:   %s\n", humanize.Comma(int64(summary.RowsDropped)))
	fmt.Fprintf(w, "  report:         %s\n", summary.ReportPath)
	fmt.Fprintf(w, "  duration:       %s\n", summary.Duration.Round(1e6))
}

func loadConfigForPaths(configPath, fromPath, toPath string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg.Paths.LogDir = fromPath
	cfg.Paths.OutDir = toPath

	return cfg, nil
}
