package calibration

import "errors"

var (
	// ErrCorpusTooSmall is returned by WalkCorpus when either class has
	// fewer than MinFilesPerClass files.
	ErrCorpusTooSmall = errors.New("calibration: corpus class below minimum file count")
)
