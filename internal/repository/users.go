package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Wh1teCaat/fitness-companion/internal/model"
	"github.com/Wh1teCaat/fitness-companion/internal/streak"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	return translate(r.DB.WithContext(ctx).Create(user).Error)
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, userID uint, fitnessGoal, workoutTime string) error {
	res := r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(map[string]any{
		"fitness_goal": fitnessGoal,
		"workout_time": workoutTime,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) UpdateRefreshToken(ctx context.Context, userID uint, refreshToken string) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Update("refresh_token", refreshToken).Error
}

func (r *Repository) VerifyRefreshToken(ctx context.Context, userID uint, refreshToken string) error {
	return translate(r.DB.WithContext(ctx).First(&model.User{}, "id = ? AND refresh_token = ?", userID, refreshToken).Error)
}

// RecordLogin applies a login at now to the user's streak as one locked
// read-modify-write and returns the updated user.
func (r *Repository) RecordLogin(ctx context.Context, userID uint, now time.Time) (*model.User, error) {
	var user model.User

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			return translate(err)
		}

		count, changed := streak.Next(user.StreakCount, user.LastLoginDate, now)
		if !changed {
			return nil
		}

		day := streak.Day(now)
		err := tx.Model(&user).Updates(map[string]any{
			"streak_count":    count,
			"last_login_date": day,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update streak: %w", err)
		}

		user.StreakCount = count
		user.LastLoginDate = &day
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}
