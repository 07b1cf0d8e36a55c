package calibration

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// MinFilesPerClass is the safety check spec §4.5 requires before a
// calibration run is allowed to proceed: fewer files than this and a
// threshold derived from the sample is not trustworthy.
const MinFilesPerClass = 30

// Corpus is a labeled set of file paths: organic (real) recordings and
// synthetic (known-fake) recordings, discovered by walking a directory with
// "organic/" and "synthetic/" subdirectories.
type Corpus struct {
	Dir       string
	Organic   []string
	Synthetic []string
}

// WalkCorpus discovers a labeled corpus under dir and enforces the
// minimum-files-per-class safety check.
func WalkCorpus(dir string) (Corpus, error) {
	organic, err := listFiles(filepath.Join(dir, "organic"))
	if err != nil {
		return Corpus{}, fmt.Errorf("calibration: reading organic corpus: %w", err)
	}
	synthetic, err := listFiles(filepath.Join(dir, "synthetic"))
	if err != nil {
		return Corpus{}, fmt.Errorf("calibration: reading synthetic corpus: %w", err)
	}
	if len(organic) < MinFilesPerClass {
		return Corpus{}, fmt.Errorf("%w: organic corpus has %d files, want >= %d", ErrCorpusTooSmall, len(organic), MinFilesPerClass)
	}
	if len(synthetic) < MinFilesPerClass {
		return Corpus{}, fmt.Errorf("%w: synthetic corpus has %d files, want >= %d", ErrCorpusTooSmall, len(synthetic), MinFilesPerClass)
	}
	return Corpus{Dir: dir, Organic: organic, Synthetic: synthetic}, nil
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// ReadPCMFile reads a file of little-endian float32 PCM samples, the
// decoded representation the pipeline otherwise expects its caller to
// supply (container/codec decoding is out of scope per spec §1).
func ReadPCMFile(path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("calibration: %s: length %d is not a multiple of 4 bytes", path, len(data))
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		out[i] = math.Float32frombits(bits)
	}
	return out, nil
}

// Fingerprint derives a short, deterministic identifier for a corpus
// snapshot from its file list, for the persisted document's provenance
// (spec §4.5.4 "dataset fingerprint"). It is not a content hash: corpus
// files are not re-read during calibration once WalkCorpus has returned,
// so an identifier derived from the discovered path list is sufficient to
// detect "calibrated against a different corpus layout" on review.
func (c Corpus) Fingerprint() string {
	const (
		offset = 0x811c9dc5
		prime  = 16777619
	)
	h := uint32(offset)
	for _, f := range append(append([]string{}, c.Organic...), c.Synthetic...) {
		for i := 0; i < len(f); i++ {
			h ^= uint32(f[i])
			h *= prime
		}
	}
	return fmt.Sprintf("%08x-%do-%ds", h, len(c.Organic), len(c.Synthetic))
}
