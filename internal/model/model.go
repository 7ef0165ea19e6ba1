package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Username      string     `gorm:"size:80;uniqueIndex;not null" json:"username"`
	PasswordHash  string     `gorm:"size:255;not null" json:"-"`
	FitnessGoal   string     `gorm:"size:50" json:"fitness_goal"`
	WorkoutTime   string     `gorm:"size:20" json:"workout_time"`
	StreakCount   int        `gorm:"not null;default:0" json:"streak_count"`
	LastLoginDate *time.Time `gorm:"type:date" json:"last_login_date"`
	RefreshToken  string     `gorm:"size:512" json:"-"`

	Messages []Message `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

// Message is one side of a chat turn. Emotion is only set on user-authored rows.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	IsBot     bool      `gorm:"not null" json:"is_bot"`
	Emotion   *string   `gorm:"size:20" json:"emotion,omitempty"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`
}
