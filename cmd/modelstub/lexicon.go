package main

import (
	"context"
	"strings"
	"unicode"

	"github.com/Wh1teCaat/fitness-companion/internal/classifier"
)

// neutralBias lets plain statements fall through to neutral.
const neutralBias = 0.5

var lexicon = map[string][]string{
	"anxiety":     {"terrified", "panic", "nervous", "anxious", "worried", "scared", "afraid", "overwhelmed", "stressed"},
	"fatigue":     {"exhausted", "tired", "sleepy", "drained", "fatigue", "sore", "weary"},
	"frustration": {"angry", "annoyed", "frustrated", "stuck", "hate", "furious", "plateau"},
	"positive":    {"happy", "excited", "great", "awesome", "love", "proud", "amazing", "crushing"},
}

// lexiconLogits scores text per output index of classifier.Calibration by
// counting keyword hits among the first maxLength words.
func lexiconLogits(_ context.Context, text string, maxLength int) ([]float64, error) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	if maxLength > 0 && len(words) > maxLength {
		words = words[:maxLength]
	}

	hits := make(map[string]float64, len(lexicon))
	for _, w := range words {
		for label, keywords := range lexicon {
			for _, k := range keywords {
				if w == k {
					hits[label]++
				}
			}
		}
	}

	logits := make([]float64, len(classifier.Calibration))
	for i, label := range classifier.Calibration {
		logits[i] = hits[label]
		if label == "neutral" {
			logits[i] = neutralBias
		}
	}
	return logits, nil
}
