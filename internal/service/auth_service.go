package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path"
	"strconv"
	"strings"
	"time"

	"shop_api/internal/mailer"
	"shop_api/internal/model"
	"shop_api/internal/observability"
	"shop_api/internal/repository"
	"shop_api/internal/storage"
	"shop_api/internal/utils"

	"go.uber.org/zap"
)

// AuthService provides signup, signin and password recovery
type AuthService interface {
	Signup(ctx context.Context, req model.SignupRequest) (*model.User, error)
	Signin(ctx context.Context, req model.SigninRequest) (*model.AuthResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error
	UpdateProfilePicture(ctx context.Context, userID int64, file *multipart.FileHeader) (*model.User, error)
}

type AuthDeps struct {
	Users             repository.UserRepository
	JWT               *utils.JWTUtil
	Mailer            mailer.Mailer
	Store             storage.FileStore
	Prom              *observability.Prom
	Log               *zap.Logger
	InitialAdminEmail string
	// Now defaults to time.Now.
	Now func() time.Time
}

type authService struct {
	AuthDeps
}

// NewAuthService creates a new AuthService
func NewAuthService(deps AuthDeps) AuthService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &authService{AuthDeps: deps}
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Signup(ctx context.Context, req model.SignupRequest) (*model.User, error) {
	email := normaliseEmail(req.Email)
	existing, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := model.RoleUser
	if s.InitialAdminEmail != "" && email == normaliseEmail(s.InitialAdminEmail) {
		role = model.RoleAdmin
		s.Log.Info("registering initial admin", zap.String("email", email))
	}

	user := &model.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		// lost a race with a concurrent signup for the same address
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Signin never issues a token unless the password matches.
func (s *authService) Signin(ctx context.Context, req model.SigninRequest) (*model.AuthResult, error) {
	user, err := s.Users.FindByEmail(ctx, normaliseEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.JWT.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &model.AuthResult{Token: token, ExpiresAt: expiresAt, User: withPictureURL(s.Store, user)}, nil
}

func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.Users.FindByEmail(ctx, normaliseEmail(email))
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	code, err := GenerateOTP()
	if err != nil {
		return err
	}
	ttl := OTPTTLMinutes * time.Minute
	if err := s.Users.SetOTP(ctx, user.ID, code, s.Now().Add(ttl)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	msg := mailer.PasswordResetMessage(strings.TrimSpace(user.FirstName+" "+user.LastName), user.Email, code, ttl)
	if err := s.Mailer.Send(ctx, msg); err != nil {
		s.Prom.OTPEmailResult("failed")
		s.Log.Error("failed to send otp email", zap.Int64("user_id", user.ID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrEmailNotSent, err)
	}
	s.Prom.OTPEmailResult("sent")
	return nil
}

// ResetPassword consumes the OTP; the same code cannot be used twice.
func (s *authService) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error {
	user, err := s.Users.FindByEmail(ctx, normaliseEmail(req.Email))
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	ok, err := s.Users.ResetPassword(ctx, user.ID, req.OTP, hash, s.Now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidOTP
	}
	return nil
}

// UpdateProfilePicture stores the new picture and removes the previous file.
func (s *authService) UpdateProfilePicture(ctx context.Context, userID int64, file *multipart.FileHeader) (*model.User, error) {
	if file == nil {
		return nil, ErrNoImages
	}
	if err := validateImage(file); err != nil {
		return nil, err
	}

	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	stored, err := storage.SaveUpload(ctx, s.Store, path.Join(imageDirProfiles, strconv.FormatInt(userID, 10)), file)
	if err != nil {
		return nil, err
	}

	previous, err := s.Users.UpdateProfilePicture(ctx, userID, stored.Key)
	if err != nil {
		s.removeFile(ctx, stored.Key)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if previous != nil && *previous != "" {
		s.removeFile(ctx, *previous)
	}

	user.ProfilePicture = &stored.Key
	return withPictureURL(s.Store, user), nil
}

func (s *authService) removeFile(ctx context.Context, key string) {
	if err := s.Store.Remove(ctx, key); err != nil {
		s.Log.Warn("failed to remove stored file", zap.String("key", key), zap.Error(err))
	}
}
