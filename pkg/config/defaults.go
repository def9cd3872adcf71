// Package config provides YAML-based project configuration for safaristats.
package config

import "github.com/northlane-data/safaristats/pkg/units"

// Default path values, relative to the working directory the CLI is run
// from.
const (
	DefaultLogDir           = "./logs"
	DefaultSerializationDir = "./serialized"
	DefaultSavedFSTDir      = "./fst"
	DefaultOutDir           = "./out"
)

// Default camera-pipeline tunables (spec §5).
const (
	// DefaultCameraSegmentSize is the external sorter's in-memory
	// segment capacity before a spill, in records.
	DefaultCameraSegmentSize = 50_000_000
)

// Default user-pipeline tunables (spec §5).
const (
	// DefaultUserCapacityLimit is the batcher's in-memory vector
	// capacity, in (user_id,session_id)->nb_pics pairs.
	DefaultUserCapacityLimit = 3 * 10_000_000
	// DefaultUserMaxFillRatio is the fraction of DefaultUserCapacityLimit
	// a collapsed batch may still occupy before it is spilled anyway.
	DefaultUserMaxFillRatio = 0.5
)

// Default I/O buffer sizes (spec §4.3, §4.5, §4.1).
const (
	DefaultLogReaderBufferBytes   = 8 * units.KiB
	DefaultCameraDailyBufferBytes = 150_000
	DefaultFinalTextBufferBytes   = 400_000
	DefaultFinalTextFlushMargin   = 4_000
)
