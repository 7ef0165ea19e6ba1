package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Wh1teCaat/fitness-companion/internal/model"
	"github.com/Wh1teCaat/fitness-companion/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	FitnessGoals = []string{"weight_loss", "muscle_gain", "endurance", "stress_relief", "general_fitness"}
	WorkoutTimes = []string{"morning", "afternoon", "evening"}
)

func (s *Service) Signup(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, ErrEmptyFields
	}

	if _, err := s.repo.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashPassword
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrUsernameTaken
		default:
			return nil, fmt.Errorf("failed to register user: %w", err)
		}
	}

	return user, nil
}

// Login verifies the credentials and records the login against the streak.
// Unknown user and wrong password both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err = s.repo.RecordLogin(ctx, user.ID, s.now().In(s.loc))
	if err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	return user, nil
}

func (s *Service) GetUser(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile stores the goal and workout time. Empty values clear them.
func (s *Service) UpdateProfile(ctx context.Context, userID uint, fitnessGoal, workoutTime string) error {
	if fitnessGoal != "" && !slices.Contains(FitnessGoals, fitnessGoal) {
		return fmt.Errorf("%w: fitness goal %q", ErrInvalidProfile, fitnessGoal)
	}
	if workoutTime != "" && !slices.Contains(WorkoutTimes, workoutTime) {
		return fmt.Errorf("%w: workout time %q", ErrInvalidProfile, workoutTime)
	}

	if err := s.repo.UpdateProfile(ctx, userID, fitnessGoal, workoutTime); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}
