package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/Wh1teCaat/fitness-companion/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	byTimestampAsc  = clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}}
	byTimestampDesc = clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}
	byIDAsc         = clause.OrderByColumn{Column: clause.Column{Name: "id"}}
	byIDDesc        = clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}
)

// CreateChatTurn stores the user's message and the bot's reply together.
func (r *Repository) CreateChatTurn(ctx context.Context, userMsg, botMsg *model.Message) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(userMsg).Error; err != nil {
			return fmt.Errorf("failed to save user message: %w", err)
		}
		if err := tx.Create(botMsg).Error; err != nil {
			return fmt.Errorf("failed to save bot message: %w", err)
		}
		return nil
	})
}

// RecentMessages returns up to limit messages of both authors, newest first.
func (r *Repository) RecentMessages(ctx context.Context, userID uint, limit int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(byTimestampDesc).
		Order(byIDDesc).
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

// EmotionTimeline returns the user's own emotion-tagged messages, oldest first.
func (r *Repository) EmotionTimeline(ctx context.Context, userID uint) ([]model.Message, error) {
	var msgs []model.Message
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND is_bot = ?", userID, false).
		Where("emotion IS NOT NULL AND emotion <> ?", "").
		Order(byTimestampAsc).
		Order(byIDAsc).
		Find(&msgs).Error
	return msgs, err
}

// EmotionCounts tallies the user's own messages by emotion, skipping untagged ones.
func (r *Repository) EmotionCounts(ctx context.Context, userID uint) (map[string]int, error) {
	query, args, err := sq.Select("emotion", "COUNT(*) AS total").
		From("messages").
		Where(sq.Eq{"user_id": userID, "is_bot": false}).
		Where(sq.NotEq{"emotion": nil}).
		Where(sq.NotEq{"emotion": ""}).
		GroupBy("emotion").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build tally query: %w", err)
	}

	var rows []struct {
		Emotion string
		Total   int
	}
	if err := r.DB.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Emotion] = row.Total
	}
	return counts, nil
}

// CountMessages is the number of stored messages of both authors for the user.
func (r *Repository) CountMessages(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Message{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}
