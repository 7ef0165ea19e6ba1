// Package responder picks the bot's reply and recommendation for a detected emotion.
package responder

import (
	"math/rand"
	"strings"
	"sync"
)

const (
	Anxiety     = "anxiety"
	Fatigue     = "fatigue"
	Frustration = "frustration"
	Neutral     = "neutral"
	Positive    = "positive"
)

const (
	FallbackText = "I'm listening. Tell me more about how you're feeling."

	StressReliefGoal   = "stress_relief"
	StressReliefSuffix = " Remember, your goal is stress relief, so take it easy."

	Disclaimer = "\n[DISCLAIMER: I am an AI, not a healthcare professional. " +
		"I cannot diagnose medical conditions or provide clinical advice. " +
		"If you feel unwell, please stop and consult a professional.]"
)

const (
	TypeVideo  = "video"
	TypeAction = "action"
)

// Recommendation is either a video (URL set) or a short exercise (Action set).
type Recommendation struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	URL    string `json:"url,omitempty"`
	Action string `json:"action,omitempty"`
}

var replies = map[string][]string{
	Fatigue: {
		"It sounds like you're exhausted. Remember, rest is just as important as the workout itself. Maybe take a lighter day?",
		"You've been working hard! Listen to your body and take a break if you need it.",
		"It's okay to feel tired. Recovery is where the progress happens.",
	},
	Frustration: {
		"I hear your frustration. Progress isn't always linear, but you are moving forward.",
		"Don't be too hard on yourself. Every effort counts, even when it doesn't feel like it.",
		"It's normal to feel stuck sometimes. Stick with it, you're doing great.",
	},
	Anxiety: {
		"I understand this can be overwhelming. Let's take it one step at a time.",
		"You're safe here. There's no pressure, just do what feels right for you today.",
		"Take a deep breath. Focus on how you feel, not the numbers.",
	},
	Positive: {
		"That's the spirit! Keep up that amazing energy!",
		"Love to hear it! You're crushing it!",
		"Fantastic! Your motivation is inspiring.",
	},
	Neutral: {
		"Got it. Ready for the next set?",
		"Okay, let's keep moving.",
		"Understood. What's next on your plan?",
	},
}

var recommendations = map[string]Recommendation{
	Fatigue: {
		Type:  TypeVideo,
		Title: "5 Minute Gentle Yoga for Fatigue",
		URL:   "https://www.youtube.com/embed/sTANio_2E0Q",
	},
	Anxiety: {
		Type:   TypeAction,
		Title:  "Box Breathing Exercise",
		Action: "Breathe In (4s) -> Hold (4s) -> Out (4s) -> Hold (4s)",
	},
	Positive: {
		Type:  TypeVideo,
		Title: "High Energy HIIT Workout",
		URL:   "https://www.youtube.com/embed/ml6cT4AZdqI",
	},
	Frustration: {
		Type:  TypeVideo,
		Title: "Release Tension Meditation",
		URL:   "https://www.youtube.com/embed/z6X5oEIg6Ak",
	},
}

// Labels lists the recognised emotions in classifier index order.
func Labels() []string {
	return []string{Anxiety, Fatigue, Frustration, Neutral, Positive}
}

// Candidates returns a copy of the reply pool for emotion, or nil when unknown.
func Candidates(emotion string) []string {
	pool, ok := replies[strings.ToLower(emotion)]
	if !ok {
		return nil
	}
	out := make([]string, len(pool))
	copy(out, pool)
	return out
}

// RecommendationFor returns the static recommendation for emotion, if any.
func RecommendationFor(emotion string) (Recommendation, bool) {
	rec, ok := recommendations[strings.ToLower(emotion)]
	return rec, ok
}

// Engine is safe for concurrent use.
type Engine struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func New(src rand.Source) *Engine {
	return &Engine{rnd: rand.New(src)}
}

// Respond returns a reply for emotion and its recommendation, nil when there is none.
func (e *Engine) Respond(emotion string) (string, *Recommendation) {
	emotion = strings.ToLower(emotion)

	pool, ok := replies[emotion]
	if !ok {
		return FallbackText, nil
	}

	e.mu.Lock()
	text := pool[e.rnd.Intn(len(pool))]
	e.mu.Unlock()

	var rec *Recommendation
	if r, ok := recommendations[emotion]; ok {
		rec = &r
	}

	return text, rec
}

func (e *Engine) Disclaimer() string {
	return Disclaimer
}

// Contextualize tailors text to the user's fitness goal.
func Contextualize(text, emotion, goal string) string {
	emotion = strings.ToLower(emotion)
	if goal == StressReliefGoal && (emotion == Fatigue || emotion == Anxiety) {
		return text + StressReliefSuffix
	}
	return text
}
