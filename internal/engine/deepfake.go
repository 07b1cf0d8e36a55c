package engine

import "errors"

// ErrDeepfakeModelUnavailable indicates the ONNX deepfake-classifier
// backend is not compiled in, or failed to initialize (missing shared
// library, missing model). Callers treat this as a sensor abstention, not
// a pipeline failure (spec §7 "sensor errors are absorbed into
// abstention").
var ErrDeepfakeModelUnavailable = errors.New("engine: deepfake classifier backend not available (build with -tags onnx and provide a model)")

// DeepfakeWindowSamples is the fixed input length the classifier expects,
// at the pipeline's canonical 16kHz sample rate (3 seconds).
const DeepfakeWindowSamples = 3 * 16000

// DeepfakeEngine classifies a fixed-length window of 16kHz mono audio and
// returns the model's estimated probability that it is synthetic.
type DeepfakeEngine interface {
	Classify(window []float32) (float32, error)
	Close() error
}

// DeepfakeNativeAvailable and NewDeepfakeEngine are implemented per build
// tag in deepfake_onnx.go (-tags onnx) and deepfake_stub.go (default).
