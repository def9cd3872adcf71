package camera

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/northlane-data/safaristats/pkg/persist"
	"github.com/northlane-data/safaristats/pkg/units"
)

// SerializationBufferBytes is the default buffered-writer/reader size used
// when persisting a day's Mapping, matched to the spec's ">=150KB
// buffered" requirement for intermediate per-day state.
const SerializationBufferBytes = 150 * units.KiB

// binaryExtension is empty: the daily camera binary's naming convention
// (camera-top-100-pics-average-YYYYMMDD) carries no file extension.
const binaryExtension = ""

// BinaryCodec implements persist.Codec for Mapping using a compact,
// fixed-endian binary layout: a uint16 camera count, followed for each
// camera by its id (1 byte) and its BestAvgPics as 100 entries, each a
// 16-byte session id followed by a little-endian float32 average.
//
// Unlike a general-purpose reflection-based persist.Codec, this format is
// written specifically for Mapping: every field has a fixed width, so no
// field names or type information are stored alongside the values.
type BinaryCodec struct{}

// Extension implements persist.Codec.
func (BinaryCodec) Extension() string {
	return binaryExtension
}

// Encode implements persist.Codec. state must be a *Mapping.
func (BinaryCodec) Encode(w io.Writer, state any) error {
	mapping, ok := state.(*Mapping)
	if !ok {
		return fmt.Errorf("binary codec: expected *Mapping, got %T", state)
	}

	bw := bufio.NewWriterSize(w, SerializationBufferBytes)

	cameraIDs := make([]uint8, 0, len(mapping.Cameras))
	for id := range mapping.Cameras {
		cameraIDs = append(cameraIDs, id)
	}

	var countBuf [2]byte
	binary.LittleEndian.PutUint16(countBuf[:], uint16(len(cameraIDs)))

	if _, err := bw.Write(countBuf[:]); err != nil {
		return fmt.Errorf("write camera count: %w", err)
	}

	for _, id := range cameraIDs {
		best := mapping.Cameras[id]

		if err := bw.WriteByte(id); err != nil {
			return fmt.Errorf("write camera id: %w", err)
		}

		if err := writeBestAvgPics(bw, best); err != nil {
			return err
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush mapping encode buffer: %w", err)
	}

	return nil
}

func writeBestAvgPics(w io.Writer, best *BestAvgPics) error {
	var buf [16 + 4]byte

	for i := 0; i < bestAvgPicsSize; i++ {
		copy(buf[0:16], best.Sessions[i][:])
		binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(best.AvgPics[i]))

		if _, err := w.Write(buf[:]); err != nil {
			return fmt.Errorf("write best-avg-pics entry %d: %w", i, err)
		}
	}

	return nil
}

func readBestAvgPics(r io.Reader) (*BestAvgPics, error) {
	best := &BestAvgPics{}

	var buf [16 + 4]byte

	for i := 0; i < bestAvgPicsSize; i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, fmt.Errorf("read best-avg-pics entry %d: %w", i, err)
		}

		copy(best.Sessions[i][:], buf[0:16])
		best.AvgPics[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[16:20]))
	}

	return best, nil
}

// Decode implements persist.Codec. state must be a *Mapping.
func (BinaryCodec) Decode(r io.Reader, state any) error {
	mapping, ok := state.(*Mapping)
	if !ok {
		return fmt.Errorf("binary codec: expected *Mapping, got %T", state)
	}

	br := bufio.NewReaderSize(r, SerializationBufferBytes)

	var countBuf [2]byte

	if _, err := io.ReadFull(br, countBuf[:]); err != nil {
		return fmt.Errorf("read camera count: %w", err)
	}

	count := int(binary.LittleEndian.Uint16(countBuf[:]))

	mapping.Cameras = make(map[uint8]*BestAvgPics, count)

	for i := 0; i < count; i++ {
		id, err := br.ReadByte()
		if err != nil {
			return fmt.Errorf("read camera id: %w", err)
		}

		best, err := readBestAvgPics(br)
		if err != nil {
			return err
		}

		mapping.Cameras[id] = best
	}

	return nil
}

var _ persist.Codec = BinaryCodec{}

// dailyBinaryPrefix is the daily camera binary's basename before the date,
// matching the spec's "<serialization_dir>/camera-top-100-pics-average-YYYYMMDD" convention.
const dailyBinaryPrefix = "camera-top-100-pics-average-"

// DailyBinaryName returns the basename (no extension) of the day's
// persisted CameraBestAvgPicsMapping for the given date.
func DailyBinaryName(date string) string {
	return dailyBinaryPrefix + date
}

// SaveDay persists mapping for date into dir.
func SaveDay(dir, date string, mapping *Mapping) error {
	return persist.SaveState(dir, DailyBinaryName(date), BinaryCodec{}, mapping)
}

// LoadDay restores the Mapping persisted for date from dir.
func LoadDay(dir, date string) (*Mapping, error) {
	mapping := &Mapping{}

	if err := persist.LoadState(dir, DailyBinaryName(date), BinaryCodec{}, mapping); err != nil {
		return nil, err
	}

	return mapping, nil
}
