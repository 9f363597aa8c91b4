package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/oura-staking/backend/internal/apperrors"
	"github.com/oura-staking/backend/internal/metrics"
	"github.com/oura-staking/backend/internal/models"
	"github.com/oura-staking/backend/internal/repository"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = &apperrors.Error{Kind: apperrors.KindConflict, Message: "Email is already registered"}
	ErrInvalidCredentials = &apperrors.Error{Kind: apperrors.KindAuth, Message: "Invalid email or password"}
	ErrWrongPassword      = &apperrors.Error{Kind: apperrors.KindAuth, Message: "Current password is incorrect"}
)

type UserService interface {
	SignUp(ctx context.Context, email, password, name string) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*models.User, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
}

type userService struct {
	userRepo   repository.UserRepository
	logService LogService
	validate   *validator.Validate
	logger     *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, logService LogService, logger *zap.Logger) UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &userService{
		userRepo:   userRepo,
		logService: logService,
		validate:   validator.New(),
		logger:     logger,
	}
}

// NormalizeEmail is applied to every email before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePassword requires eight characters with upper case, lower case and a digit.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return apperrors.Validation("Password must be at least 8 characters long")
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	switch {
	case !upper:
		return apperrors.Validation("Password must contain at least one uppercase letter")
	case !lower:
		return apperrors.Validation("Password must contain at least one lowercase letter")
	case !digit:
		return apperrors.Validation("Password must contain at least one number")
	}
	return nil
}

// FormatUserID renders a counter value as a five digit user id.
func FormatUserID(seq int64) string {
	return fmt.Sprintf("%05d", seq)
}

func (s *userService) SignUp(ctx context.Context, email, password, name string) (*models.User, error) {
	email = NormalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, apperrors.Validation("Invalid email address")
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, translate("get user", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Storage("hash password", err)
	}

	seq, err := s.userRepo.NextUserSequence(ctx)
	if err != nil {
		return nil, translate("next user id", err)
	}
	if FormatUserID(seq) == models.AdminUserID {
		if seq, err = s.userRepo.NextUserSequence(ctx); err != nil {
			return nil, translate("next user id", err)
		}
	}

	user := &models.User{
		UserID:    FormatUserID(seq),
		Email:     email,
		Name:      strings.TrimSpace(name),
		Password:  string(hash),
		Role:      models.RoleUser,
		CreatedAt: time.Now(),
		Ledger:    models.Ledger{Stakes: []models.Stake{}},
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, translate("create user", err)
	}

	metrics.Signups.Inc()
	s.logger.Info("user signed up", zap.String("user_id", user.UserID))
	_ = s.logService.LogAction(ctx, user.UserID, "SignUp", "User registered", "", map[string]interface{}{
		"email": email,
	})
	return user, nil
}

func (s *userService) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, translate("get user", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return ErrWrongPassword
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Storage("hash password", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return translate("update password", err)
	}

	s.logger.Info("password changed", zap.String("user_id", userID))
	_ = s.logService.LogAction(ctx, userID, "ChangePassword", "User changed password", "", nil)
	return nil
}

func (s *userService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetUserByUserID(ctx, userID)
	if err != nil {
		return nil, translate("get user", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User %s not found", userID)
	}
	return user, nil
}

func (s *userService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, translate("get user", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User not found")
	}
	return user, nil
}

func (s *userService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.userRepo.GetAllUsers(ctx)
	return users, translate("get users", err)
}
