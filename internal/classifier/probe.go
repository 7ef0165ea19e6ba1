package classifier

import (
	"context"
	"fmt"
)

// ProbeSentences has one unambiguous sentence per emotion. Running them
// through the model is how Calibration was derived.
var ProbeSentences = []struct {
	Text     string
	Expected string
}{
	{"I am terrified and having a panic attack.", "anxiety"},
	{"I am exhausted, sleepy and so tired.", "fatigue"},
	{"I am angry, annoyed and frustrated.", "frustration"},
	{"It is a book.", "neutral"},
	{"I am so happy and excited! This is great!", "positive"},
}

type ProbeResult struct {
	Text     string
	Expected string
	Index    int
	Got      string
}

func (r ProbeResult) OK() bool {
	return r.Got == r.Expected
}

// Probe classifies every probe sentence through backend using Calibration.
func Probe(ctx context.Context, backend Backend, maxLength int) ([]ProbeResult, error) {
	results := make([]ProbeResult, 0, len(ProbeSentences))
	for _, p := range ProbeSentences {
		logits, err := backend.Logits(ctx, p.Text, maxLength)
		if err != nil {
			return nil, fmt.Errorf("probe %q: %w", p.Text, err)
		}
		if len(logits) == 0 {
			return nil, fmt.Errorf("probe %q: %w", p.Text, ErrEmptyLogits)
		}

		idx := Argmax(logits)
		results = append(results, ProbeResult{
			Text:     p.Text,
			Expected: p.Expected,
			Index:    idx,
			Got:      LabelFor(idx),
		})
	}
	return results, nil
}
