package pyscribe

import "time"

// ParseFilesOptions configures the ParseFiles function.
type ParseFilesOptions struct {
	// Path is the root directory to scan for files.
	// If empty, current directory is used.
	Path string

	// File is a single file to parse.
	// If set, Path is ignored.
	File string

	// ModuleRoot is the directory module names are derived from.
	// If empty, Path is used, or the directory of File.
	ModuleRoot string

	// Exclude holds glob patterns matched against slash-separated paths
	// relative to Path. Matching directories are not descended into.
	Exclude []string

	// SkipValidation is passed through to the Parser.
	SkipValidation bool

	// Jobs is the number of parallel workers.
	// If 0, defaults to number of CPUs.
	Jobs int

	// MaxBytes skips files larger than this size.
	// If 0, defaults to 2MB.
	MaxBytes int64

	// Observer receives one call per parsed file. May be nil.
	Observer Observer
}

// Observer is notified after each file is parsed. Implementations must be
// safe for concurrent use.
type Observer interface {
	ObserveFile(elapsed time.Duration, items []LocatedItem, err error)
}
