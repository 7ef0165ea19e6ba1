package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Wh1teCaat/fitness-companion/internal/model"
	"github.com/Wh1teCaat/fitness-companion/internal/responder"
)

// DashboardLimit is how many recent messages the dashboard shows.
const DashboardLimit = 20

type ChatResult struct {
	Response       string                    `json:"response"`
	Emotion        string                    `json:"emotion"`
	Confidence     float64                   `json:"confidence"`
	Disclaimer     string                    `json:"disclaimer"`
	Recommendation *responder.Recommendation `json:"recommendation"`
}

// ModelReady fails with ErrModelNotLoaded when no classifier is available.
func (s *Service) ModelReady(ctx context.Context) error {
	if _, err := s.models.Get(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrModelNotLoaded, err)
	}
	return nil
}

// Chat classifies message, picks a reply and stores both sides of the turn.
func (s *Service) Chat(ctx context.Context, userID uint, message string) (*ChatResult, error) {
	clf, err := s.models.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelNotLoaded, err)
	}

	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	emotion, confidence, err := clf.Classify(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("failed to classify message: %w", err)
	}

	text, rec := s.engine.Respond(emotion)
	text = responder.Contextualize(text, emotion, user.FitnessGoal)

	now := s.now().UTC()
	userMsg := &model.Message{
		UserID:    userID,
		Content:   message,
		Emotion:   &emotion,
		Timestamp: now,
	}
	botMsg := &model.Message{
		UserID:    userID,
		Content:   text,
		IsBot:     true,
		Timestamp: now,
	}
	if err := s.repo.CreateChatTurn(ctx, userMsg, botMsg); err != nil {
		return nil, err
	}

	return &ChatResult{
		Response:       text,
		Emotion:        emotion,
		Confidence:     confidence,
		Disclaimer:     s.engine.Disclaimer(),
		Recommendation: rec,
	}, nil
}

func (s *Service) RecentMessages(ctx context.Context, userID uint) ([]model.Message, error) {
	return s.repo.RecentMessages(ctx, userID, DashboardLimit)
}
