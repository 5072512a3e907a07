package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mindspend/mindspend-api/models"
	"github.com/mindspend/mindspend-api/store"
	"github.com/mindspend/mindspend-api/utils"
)

type AuthService struct {
	users  store.UserStore
	tokens *utils.TokenManager
	seeder *Seeder
	// encryptionKey seals TOTP secrets at rest when set.
	encryptionKey string
	now           func() time.Time
}

// NewAuthService builds the credential service. seeder may be nil.
func NewAuthService(users store.UserStore, tokens *utils.TokenManager, seeder *Seeder, encryptionKey string) *AuthService {
	return &AuthService{
		users:         users,
		tokens:        tokens,
		seeder:        seeder,
		encryptionKey: encryptionKey,
		now:           time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ============================================================================
// REGISTER / LOGIN
// ============================================================================

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || name == "" {
		return nil, validationError("email and name are required")
	}
	if len(req.Password) < 6 {
		return nil, validationError("password must be at least 6 characters")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			utils.LogAuthAction("REGISTER", email, false)
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	utils.LogAuthAction("REGISTER", email, true)

	if s.seeder != nil {
		if err := s.seeder.Seed(ctx, user.ID); err != nil {
			utils.SafeWarn("[Auth] sample data for %s not seeded: %v", utils.MaskID(user.ID), err)
		}
	}

	return s.issue("User registered successfully", user)
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	email := normalizeEmail(req.Email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		utils.LogAuthAction("LOGIN", email, false)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		utils.LogAuthAction("LOGIN", email, false)
		return nil, ErrInvalidCredentials
	}

	if user.TOTPEnabled {
		if strings.TrimSpace(req.TOTPCode) == "" {
			return nil, ErrTOTPRequired
		}
		ok, err := s.verifyCode(user, req.TOTPCode)
		if err != nil {
			return nil, err
		}
		if !ok {
			utils.LogAuthAction("LOGIN_2FA", email, false)
			return nil, ErrInvalidTOTP
		}
	}

	utils.LogAuthAction("LOGIN", email, true)
	return s.issue("Login successful", user)
}

func (s *AuthService) issue(message string, user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Message: message, Token: token, User: user.Public()}, nil
}

// Me returns the caller's profile.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ============================================================================
// TWO-FACTOR
// ============================================================================

// SetupTOTP stores a fresh secret without enabling it. The code check in
// EnableTOTP turns it on.
func (s *AuthService) SetupTOTP(ctx context.Context, userID string) (*models.TOTPSetupResponse, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	secret, url, err := utils.GenerateTOTPSecret(user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}

	stored, err := s.sealSecret(secret)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateTOTP(ctx, userID, stored, false); err != nil {
		return nil, fmt.Errorf("store totp secret: %w", err)
	}

	utils.LogAuthAction("2FA_SETUP", user.Email, true)
	return &models.TOTPSetupResponse{Secret: secret, URL: url}, nil
}

func (s *AuthService) EnableTOTP(ctx context.Context, userID, code string) error {
	return s.toggleTOTP(ctx, userID, code, true)
}

func (s *AuthService) DisableTOTP(ctx context.Context, userID, code string) error {
	return s.toggleTOTP(ctx, userID, code, false)
}

func (s *AuthService) toggleTOTP(ctx context.Context, userID, code string, enable bool) error {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if user.TOTPSecret == "" {
		return ErrTOTPNotConfigured
	}

	ok, err := s.verifyCode(user, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTOTP
	}

	secret := user.TOTPSecret
	if !enable {
		secret = ""
	}
	if err := s.users.UpdateTOTP(ctx, userID, secret, enable); err != nil {
		return fmt.Errorf("update totp: %w", err)
	}

	action := "2FA_ENABLE"
	if !enable {
		action = "2FA_DISABLE"
	}
	utils.LogAuthAction(action, user.Email, true)
	return nil
}

func (s *AuthService) verifyCode(user *models.User, code string) (bool, error) {
	secret, err := s.openSecret(user.TOTPSecret)
	if err != nil {
		return false, err
	}
	return utils.VerifyTOTP(secret, strings.TrimSpace(code)), nil
}

func (s *AuthService) sealSecret(secret string) (string, error) {
	if s.encryptionKey == "" {
		return secret, nil
	}
	sealed, err := utils.Encrypt(s.encryptionKey, []byte(secret))
	if err != nil {
		return "", fmt.Errorf("encrypt totp secret: %w", err)
	}
	return sealed, nil
}

func (s *AuthService) openSecret(stored string) (string, error) {
	if s.encryptionKey == "" {
		return stored, nil
	}
	plain, err := utils.Decrypt(s.encryptionKey, stored)
	if err != nil {
		return "", fmt.Errorf("decrypt totp secret: %w", err)
	}
	return string(plain), nil
}
