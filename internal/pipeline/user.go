package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/northlane-data/safaristats/internal/logstore"
	"github.com/northlane-data/safaristats/internal/metrics"
	"github.com/northlane-data/safaristats/internal/user"
	"github.com/northlane-data/safaristats/pkg/config"
	"github.com/northlane-data/safaristats/pkg/dateutil"
)

// UserSummary reports what a user pipeline run did.
type UserSummary struct {
	DaysProcessed int
	RowsRead      int
	RowsDropped   int
	ReportPath    string
	Duration      time.Duration
}

// RunUser implements the USER-TOP10 pipeline end to end: discover the
// trailing seven-day window under fromDir, batch-and-build a daily FST
// set for each unprocessed day, then union the week's daily sets into
// the final report under toDir.
func RunUser(cfg *config.Config, fromDir, toDir string) (UserSummary, error) {
	started := time.Now()

	if err := os.MkdirAll(cfg.Paths.SavedFSTDir, 0o755); err != nil {
		return UserSummary{}, fmt.Errorf("create saved fst dir %s: %w", cfg.Paths.SavedFSTDir, err)
	}

	if err := os.MkdirAll(toDir, 0o755); err != nil {
		return UserSummary{}, fmt.Errorf("create output dir %s: %w", toDir, err)
	}

	reg := metrics.New("user")

	results := logstore.Discover(fromDir, dailySetExists(cfg.Paths.SavedFSTDir))

	var summary UserSummary

	for _, result := range results {
		if !result.Ok() {
			return summary, fmt.Errorf("discover user logs: %w", result.Err)
		}

		rowsRead, rowsDropped, spills, err := buildOneDay(cfg, result.Item)
		if err != nil {
			return summary, err
		}

		reg.RowsRead.Add(float64(rowsRead))
		reg.RowsDropped.Add(float64(rowsDropped))
		reg.Spills.Add(float64(spills))

		summary.DaysProcessed++
		summary.RowsRead += rowsRead
		summary.RowsDropped += rowsDropped

		slog.Info("user day built",
			"date", result.Item.Date.String(),
			"path", result.Item.Path,
		)
	}

	dailySetPaths := make([]string, 0, 7)

	for _, day := range dateutil.LastSevenDays() {
		path := filepath.Join(cfg.Paths.SavedFSTDir, user.DailySetName(day.String()))

		if _, err := os.Stat(path); err != nil {
			continue
		}

		dailySetPaths = append(dailySetPaths, path)
	}

	reportName := "user_top_10_" + dateutil.Today().String() + ".txt"
	reportPath := filepath.Join(toDir, reportName)

	if err := user.Finalize(dailySetPaths, reportPath); err != nil {
		return summary, fmt.Errorf("finalize user week: %w", err)
	}

	summary.ReportPath = reportPath
	summary.Duration = time.Since(started)
	reg.Duration.Observe(summary.Duration.Seconds())

	if err := reg.WriteTextfile(filepath.Join(toDir, "user_metrics.prom")); err != nil {
		slog.Warn("failed to write user metrics textfile", "error", err)
	}

	return summary, nil
}

func buildOneDay(cfg *config.Config, item logstore.Unprocessed) (rowsRead, rowsDropped, spills int, err error) {
	reader, err := logstore.Open(item.Path, cfg.Buffer.LogReaderBytes)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("open user log %s: %w", item.Path, err)
	}
	defer reader.Close()

	tempDir := filepath.Join(".", "temporary_fsts_"+uuid.New().String())

	batcher := user.NewBatcher(cfg.User.CapacityLimit, cfg.User.MaxFillRatioAfterCollect, tempDir)

	result, err := batcher.Run(reader)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("batch user day %s: %w", item.Date, err)
	}

	outPath := filepath.Join(cfg.Paths.SavedFSTDir, user.DailySetName(item.Date.String()))

	if err := user.BuildDay(tempDir, result.BatchFiles, outPath); err != nil {
		return 0, 0, 0, fmt.Errorf("build user day set %s: %w", item.Date, err)
	}

	return result.RowsRead, result.RowsDropped, len(result.BatchFiles), nil
}

func dailySetExists(savedFSTDir string) func(dateutil.DateStamp) bool {
	return func(day dateutil.DateStamp) bool {
		path := filepath.Join(savedFSTDir, user.DailySetName(day.String()))

		_, err := os.Stat(path)

		return err == nil
	}
}
