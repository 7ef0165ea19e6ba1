package service

import (
	"context"

	"github.com/Wh1teCaat/fitness-companion/internal/model"
)

const calendarLayout = "2006-01-02"

func (s *Service) EmotionCounts(ctx context.Context, userID uint) (map[string]int, error) {
	return s.repo.EmotionCounts(ctx, userID)
}

func (s *Service) Calendar(ctx context.Context, userID uint) (map[string]string, error) {
	msgs, err := s.repo.EmotionTimeline(ctx, userID)
	if err != nil {
		return nil, err
	}
	return BuildCalendar(msgs), nil
}

// BuildCalendar maps each UTC day to an emotion. msgs must be in chronological
// order; the last message of a day wins.
func BuildCalendar(msgs []model.Message) map[string]string {
	calendar := make(map[string]string)
	for _, m := range msgs {
		if m.IsBot || m.Emotion == nil || *m.Emotion == "" || m.Timestamp.IsZero() {
			continue
		}
		calendar[m.Timestamp.UTC().Format(calendarLayout)] = *m.Emotion
	}
	return calendar
}
