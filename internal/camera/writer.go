package camera

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// writerBufferBytes and writerFlushMargin match the spec's ~400KB
// buffered writer that flushes once it is within 4,000 bytes of
// capacity, rather than waiting for a full buffer.
const (
	writerBufferBytes = 400_000
	writerFlushMargin = 4_000
)

// WriteReport writes mapping to path as the final CAM-TOP100 text report:
// one line per camera, cameras sorted ascending by id, each line listing
// all 100 session/average slots (including empty default slots) followed
// by a trailing comma.
func WriteReport(path string, mapping *Mapping) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create camera report %s: %w", path, err)
	}
	defer file.Close()

	bw := bufio.NewWriterSize(file, writerBufferBytes)

	cameraIDs := make([]uint8, 0, len(mapping.Cameras))
	for id := range mapping.Cameras {
		cameraIDs = append(cameraIDs, id)
	}

	sort.Slice(cameraIDs, func(i, j int) bool { return cameraIDs[i] < cameraIDs[j] })

	for _, id := range cameraIDs {
		if err := writeCameraLine(bw, id, mapping.Cameras[id]); err != nil {
			return err
		}

		if bw.Buffered() >= writerBufferBytes-writerFlushMargin {
			if flushErr := bw.Flush(); flushErr != nil {
				return fmt.Errorf("flush camera report %s: %w", path, flushErr)
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("final flush of camera report %s: %w", path, err)
	}

	return nil
}

func writeCameraLine(w *bufio.Writer, cameraID uint8, best *BestAvgPics) error {
	if _, err := w.WriteString(strconv.FormatUint(uint64(cameraID), 10)); err != nil {
		return fmt.Errorf("write camera id: %w", err)
	}

	if err := w.WriteByte('|'); err != nil {
		return fmt.Errorf("write separator: %w", err)
	}

	for i := 0; i < bestAvgPicsSize; i++ {
		if _, err := w.WriteString(best.Sessions[i].String()); err != nil {
			return fmt.Errorf("write session id: %w", err)
		}

		if err := w.WriteByte(':'); err != nil {
			return fmt.Errorf("write colon: %w", err)
		}

		if _, err := w.WriteString(strconv.FormatFloat(float64(best.AvgPics[i]), 'g', -1, 32)); err != nil {
			return fmt.Errorf("write average: %w", err)
		}

		if err := w.WriteByte(','); err != nil {
			return fmt.Errorf("write comma: %w", err)
		}
	}

	return w.WriteByte('\n')
}
