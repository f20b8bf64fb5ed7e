package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/example/foodexpress/internal/config"
	"github.com/example/foodexpress/internal/models"
	"github.com/example/foodexpress/internal/utils"
)

const notifyTimeout = 30 * time.Second

// AccountService owns signup, verification, login and token resolution.
type AccountService struct {
	db       *gorm.DB
	cfg      *config.Config
	notifier Notifier

	// Now is the clock used for code expiry and token issuing.
	Now      func() time.Time
	hashCost int
}

// NewAccountService constructs an AccountService.
func NewAccountService(db *gorm.DB, cfg *config.Config, notifier Notifier) *AccountService {
	return &AccountService{
		db:       db,
		cfg:      cfg,
		notifier: notifier,
		Now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}
}

// SignupInput is the payload of a signup submission.
type SignupInput struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
	Mobile   string `json:"mobile" validate:"required,mobile"`
}

// AuthResult is returned by verification and login.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// SubmitSignup validates a signup attempt and stores it as the single
// pending signup for its email, then sends the verification code.
func (s *AccountService) SubmitSignup(ctx context.Context, in SignupInput) (*models.PendingSignup, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = utils.NormalizeEmail(in.Email)
	in.Mobile = strings.TrimSpace(in.Mobile)
	if err := utils.ValidateStruct(in); err != nil {
		return nil, validationError(err)
	}
	mobile := utils.NormalizeMobile(in.Mobile)

	verified := s.db.WithContext(ctx).Where("is_verified = ?", true)
	if err := findConflict(verified, in.Email, in.Username, mobile); err != nil {
		return nil, err
	}

	hash, err := utils.HashPasswordCost(in.Password, s.hashCost)
	if err != nil {
		return nil, err
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		return nil, err
	}

	pending := models.PendingSignup{
		Username:     in.Username,
		Email:        in.Email,
		Mobile:       mobile,
		PasswordHash: hash,
		OTP:          code,
		OTPExpiresAt: s.Now().Add(s.cfg.OTPTTL),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", in.Email).Delete(&models.PendingSignup{}).Error; err != nil {
			return err
		}
		return tx.Create(&pending).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newError(ErrConflict, "email", "a signup for this email is already in progress")
		}
		return nil, err
	}

	s.sendOTP(ctx, pending.Email, pending.Username, code)
	return &pending, nil
}

// ResendOTP issues a fresh code and expiry for an existing pending signup.
func (s *AccountService) ResendOTP(ctx context.Context, email string) (*models.PendingSignup, error) {
	pending, err := s.findPending(ctx, email)
	if err != nil {
		return nil, err
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		return nil, err
	}
	pending.OTP = code
	pending.OTPExpiresAt = s.Now().Add(s.cfg.OTPTTL)

	if err := s.db.WithContext(ctx).Model(pending).
		Updates(map[string]any{"otp": pending.OTP, "otp_expires_at": pending.OTPExpiresAt}).Error; err != nil {
		return nil, err
	}

	s.sendOTP(ctx, pending.Email, pending.Username, code)
	return pending, nil
}

// VerifyOTP promotes a pending signup to a verified account when the code
// matches and has not expired. An expired pending signup is deleted.
func (s *AccountService) VerifyOTP(ctx context.Context, email, code string) (*AuthResult, error) {
	pending, err := s.findPending(ctx, email)
	if err != nil {
		return nil, err
	}

	if s.Now().After(pending.OTPExpiresAt) {
		if err := s.db.WithContext(ctx).Delete(pending).Error; err != nil {
			return nil, err
		}
		return nil, newError(ErrExpired, "otp", "verification code expired, please sign up again")
	}

	if strings.TrimSpace(code) != pending.OTP {
		return nil, newError(ErrInvalidCode, "otp", "invalid verification code")
	}

	user := models.User{
		Username:      pending.Username,
		Email:         pending.Email,
		Mobile:        pending.Mobile,
		PasswordHash:  pending.PasswordHash,
		IsVerified:    true,
		Role:          models.RoleUser,
		Notifications: models.DefaultNotificationPreferences(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findConflict(tx, user.Email, user.Username, user.Mobile); err != nil {
			return err
		}

		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Delete(pending).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newError(ErrConflict, "email", "an account with these details already exists")
		}
		return nil, err
	}

	token, err := s.IssueToken(&user)
	if err != nil {
		return nil, err
	}

	s.sendWelcome(ctx, user.Email, user.Username)
	return &AuthResult{User: &user, Token: token}, nil
}

// Login checks credentials and issues a token for a verified account.
func (s *AccountService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", utils.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrInvalidCredentials, "", "invalid email or password")
		}
		return nil, err
	}

	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, newError(ErrInvalidCredentials, "", "invalid email or password")
	}

	if !user.IsVerified {
		return nil, newError(ErrUnverifiedAccount, "", "please verify your email before logging in")
	}

	token, err := s.IssueToken(&user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: &user, Token: token}, nil
}

// IssueToken signs an auth token for the account.
func (s *AccountService) IssueToken(user *models.User) (string, error) {
	return utils.GenerateToken(s.cfg.JWTSecret, utils.TokenSubject{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     string(user.Role),
	}, s.cfg.TokenTTL, s.Now())
}

// ResolveToken maps a bearer token to its verified account.
func (s *AccountService) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, newError(ErrUnauthenticated, "", "missing authorization token")
	}

	userID, err := utils.ParseToken(s.cfg.JWTSecret, token)
	if err != nil {
		return nil, newError(ErrUnauthenticated, "", "invalid or expired token")
	}

	user, err := s.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, newError(ErrUnauthenticated, "", "account no longer exists")
		}
		return nil, err
	}

	if !user.IsVerified {
		return nil, newError(ErrUnverified, "", "account is not verified")
	}
	return user, nil
}

// FindUser loads an account by id.
func (s *AccountService) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "", "account not found")
		}
		return nil, err
	}
	return &user, nil
}

func (s *AccountService) findPending(ctx context.Context, email string) (*models.PendingSignup, error) {
	var pending models.PendingSignup
	err := s.db.WithContext(ctx).Where("email = ?", utils.NormalizeEmail(email)).First(&pending).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "email", "no pending signup for this email")
		}
		return nil, err
	}
	return &pending, nil
}

// sendOTP delivers the code in the background. The code is always logged
// so a failed transport never blocks verification.
func (s *AccountService) sendOTP(ctx context.Context, email, username, code string) {
	log.Printf("[Signup] verification code for %s: %s", email, code)
	if s.notifier == nil {
		return
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	go func() {
		defer cancel()
		if err := s.notifier.SendOTP(notifyCtx, email, username, code); err != nil {
			log.Printf("[Signup] failed to send verification code to %s: %v", email, err)
		}
	}()
}

func (s *AccountService) sendWelcome(ctx context.Context, email, username string) {
	if s.notifier == nil {
		return
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	go func() {
		defer cancel()
		if err := s.notifier.SendWelcome(notifyCtx, email, username); err != nil {
			log.Printf("[Signup] failed to send welcome message to %s: %v", email, err)
		}
	}()
}

// findConflict reports the first unique field already taken by an account
// matching scope, checked in the order email, username, mobile.
func findConflict(scope *gorm.DB, email, username, mobile string) error {
	checks := []struct {
		column  string
		value   string
		message string
	}{
		{"email", email, "an account with this email already exists"},
		{"username", username, "this username is already taken"},
		{"mobile", mobile, "an account with this mobile number already exists"},
	}

	for _, c := range checks {
		var n int64
		if err := scope.Session(&gorm.Session{}).Model(&models.User{}).Where(c.column+" = ?", c.value).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return newError(ErrConflict, c.column, c.message)
		}
	}
	return nil
}
