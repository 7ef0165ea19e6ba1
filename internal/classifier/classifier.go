// Package classifier turns raw logits from the emotion model into a label and
// a confidence score.
//
// The model itself (a fine-tuned RobertaForSequenceClassification) runs in a
// sidecar process. A Backend fetches its logits over gRPC or HTTP; the Adapter
// owns softmax, argmax and the index to label calibration.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

var (
	ErrNotLoaded       = errors.New("model not loaded")
	ErrModelDirMissing = errors.New("model directory not found")
	ErrEmptyLogits     = errors.New("backend returned no logits")
	ErrInvalidLogits   = errors.New("backend returned a non-finite logit")
)

// Unknown is reported for an argmax index outside Calibration.
const Unknown = "unknown"

// Calibration maps output indices of the roberta_model artifact to emotion
// labels. The artifact's own config only names them LABEL_0..LABEL_4, so this
// order was established by feeding it one unambiguous sentence per emotion
// (see Probe and cmd/probe). It belongs to that artifact: a retrained model
// must be probed again rather than assumed to share it.
var Calibration = [5]string{
	0: "anxiety",
	1: "fatigue",
	2: "frustration",
	3: "neutral",
	4: "positive",
}

// LabelFor maps a model output index through Calibration.
func LabelFor(index int) string {
	if index < 0 || index >= len(Calibration) {
		return Unknown
	}
	return Calibration[index]
}

type Classifier interface {
	Classify(ctx context.Context, text string) (label string, confidence float64, err error)
}

// Backend returns raw logits for text. The model side tokenizes and truncates
// or pads the input to maxLength tokens.
type Backend interface {
	Logits(ctx context.Context, text string, maxLength int) ([]float64, error)
}

type Adapter struct {
	backend   Backend
	maxLength int
	timeout   time.Duration
}

func NewAdapter(backend Backend, maxLength int, timeout time.Duration) *Adapter {
	return &Adapter{backend: backend, maxLength: maxLength, timeout: timeout}
}

func (a *Adapter) Classify(ctx context.Context, text string) (string, float64, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	logits, err := a.backend.Logits(ctx, text, a.maxLength)
	if err != nil {
		return "", 0, fmt.Errorf("failed to get logits: %w", err)
	}
	if len(logits) == 0 {
		return "", 0, ErrEmptyLogits
	}
	for i, v := range logits {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", 0, fmt.Errorf("%w: index %d is %v", ErrInvalidLogits, i, v)
		}
	}

	probs := Softmax(logits)
	idx := Argmax(probs)

	return LabelFor(idx), probs[idx], nil
}

// Close releases the backend connection when it holds one.
func (a *Adapter) Close() error {
	if c, ok := a.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Softmax is shifted by the max logit so large values do not overflow.
func Softmax(logits []float64) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}

	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}

	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Argmax returns the first index of the largest value, -1 for an empty slice.
func Argmax(values []float64) int {
	best := -1
	for i, v := range values {
		if best == -1 || v > values[best] {
			best = i
		}
	}
	return best
}
