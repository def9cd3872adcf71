// Package pipeline wires the shared log-discovery, camera, and user
// collaborators into the two end-to-end runs the CLI exposes: the
// CAM-TOP100 pipeline and the USER-TOP10 pipeline.
package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/northlane-data/safaristats/internal/camera"
	"github.com/northlane-data/safaristats/internal/logstore"
	"github.com/northlane-data/safaristats/internal/metrics"
	"github.com/northlane-data/safaristats/pkg/config"
	"github.com/northlane-data/safaristats/pkg/dateutil"
)

// CameraSummary reports what a camera pipeline run did, for the CLI to
// print and for the caller to assert against in tests.
type CameraSummary struct {
	DaysProcessed int
	RowsRead      int
	RowsDropped   int
	ReportPath    string
	Duration      time.Duration
}

// RunCamera implements the CAM-TOP100 pipeline end to end: discover the
// trailing seven-day window under fromDir, extract and serialize each
// unprocessed day, merge the week's daily mappings, and write the final
// report under toDir.
func RunCamera(cfg *config.Config, fromDir, toDir string) (CameraSummary, error) {
	started := time.Now()

	if err := os.MkdirAll(cfg.Paths.SerializationDir, 0o755); err != nil {
		return CameraSummary{}, fmt.Errorf("create serialization dir %s: %w", cfg.Paths.SerializationDir, err)
	}

	if err := os.MkdirAll(toDir, 0o755); err != nil {
		return CameraSummary{}, fmt.Errorf("create output dir %s: %w", toDir, err)
	}

	reg := metrics.New("camera")

	results := logstore.Discover(fromDir, alreadySerialized(cfg.Paths.SerializationDir))

	var (
		summary  CameraSummary
		mappings []*camera.Mapping
	)

	for _, result := range results {
		if !result.Ok() {
			return summary, fmt.Errorf("discover camera logs: %w", result.Err)
		}

		mapping, rowsRead, rowsDropped, err := extractOneDay(cfg, reg, result.Item)
		if err != nil {
			return summary, err
		}

		mappings = append(mappings, mapping)
		summary.DaysProcessed++
		summary.RowsRead += rowsRead
		summary.RowsDropped += rowsDropped

		slog.Info("camera day extracted",
			"date", result.Item.Date.String(),
			"path", result.Item.Path,
		)
	}

	for _, day := range dateutil.LastSevenDays() {
		if containsDiscovered(results, day) {
			continue
		}

		mapping, err := camera.LoadDay(cfg.Paths.SerializationDir, day.String())
		if err != nil {
			return summary, fmt.Errorf("load already-serialized camera day %s: %w", day, err)
		}

		mappings = append(mappings, mapping)
	}

	merged, err := camera.Merge(mappings)
	if err != nil {
		return summary, fmt.Errorf("merge camera week: %w", err)
	}

	reportName := "camera_top100_" + dateutil.Today().String() + ".txt"
	reportPath := filepath.Join(toDir, reportName)

	if err := camera.WriteReport(reportPath, merged); err != nil {
		return summary, fmt.Errorf("write camera report: %w", err)
	}

	summary.ReportPath = reportPath
	summary.Duration = time.Since(started)
	reg.Duration.Observe(summary.Duration.Seconds())

	if err := reg.WriteTextfile(filepath.Join(toDir, "camera_metrics.prom")); err != nil {
		slog.Warn("failed to write camera metrics textfile", "error", err)
	}

	return summary, nil
}

func extractOneDay(cfg *config.Config, reg *metrics.Registry, item logstore.Unprocessed) (mapping *camera.Mapping, rowsRead, rowsDropped int, err error) {
	reader, err := logstore.Open(item.Path, cfg.Buffer.LogReaderBytes)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("open camera log %s: %w", item.Path, err)
	}
	defer reader.Close()

	tempDir, err := os.MkdirTemp("", "safaristats-camera-sort-")
	if err != nil {
		return nil, 0, 0, fmt.Errorf("create camera sort temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	extractor := camera.NewExtractor(cfg.Camera.SegmentSize, tempDir)

	result, err := extractor.Extract(reader)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("extract camera day %s: %w", item.Date, err)
	}

	reg.RowsRead.Add(float64(result.RowsRead))
	reg.RowsDropped.Add(float64(result.RowsDropped))
	reg.Spills.Add(float64(result.Spills))

	if err := camera.SaveDay(cfg.Paths.SerializationDir, item.Date.String(), result.Mapping); err != nil {
		return nil, 0, 0, fmt.Errorf("save camera day %s: %w", item.Date, err)
	}

	return result.Mapping, result.RowsRead, result.RowsDropped, nil
}

func alreadySerialized(serializationDir string) func(dateutil.DateStamp) bool {
	return func(day dateutil.DateStamp) bool {
		path := filepath.Join(serializationDir, camera.DailyBinaryName(day.String()))

		_, err := os.Stat(path)

		return err == nil
	}
}

func containsDiscovered(results []logstore.DiscoverResult, day dateutil.DateStamp) bool {
	for _, r := range results {
		if r.Ok() && r.Item.Date == day {
			return true
		}
	}

	return false
}
