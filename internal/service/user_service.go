package service

import (
	"context"
	"fmt"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

var validate = validator.New()

// UserPatch carries a partial profile update; nil fields keep their value.
type UserPatch struct {
	Name  *string
	Email *string
}

type UserService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewUserService(repo domain.Repository, logger *zerolog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

func (s *UserService) CreateUser(ctx context.Context, name, email string) (*models.User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	user := &models.User{Name: name, Email: strings.TrimSpace(email)}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", user.ID).Msg("user created")
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *UserService) UpdateUser(ctx context.Context, id int64, patch UserPatch) (*models.User, error) {
	var updated *models.User
	err := s.repo.WithinTx(ctx, func(tx domain.Repository) error {
		user, err := tx.GetUser(ctx, id)
		if err != nil {
			return err
		}
		if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
			user.Name = *patch.Name
		}
		if patch.Email != nil && strings.TrimSpace(*patch.Email) != "" {
			if err := validateEmail(*patch.Email); err != nil {
				return err
			}
			user.Email = strings.TrimSpace(*patch.Email)
		}
		if err := tx.UpdateUser(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", id).Msg("user updated")
	return updated, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	if err := validate.Var(email, "email"); err != nil {
		return fmt.Errorf("%w: invalid email %q", domain.ErrValidation, email)
	}
	return nil
}
