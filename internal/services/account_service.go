package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"keuangan/internal/auth"
	"keuangan/internal/core"
	"keuangan/internal/storage"
)

var photoExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// AccountService handles registration, login and profile management.
type AccountService struct {
	storage        *storage.SQLiteRepository
	tokens         *auth.TokenIssuer
	uploadDir      string
	maxUploadBytes int64
}

func NewAccountService(storage *storage.SQLiteRepository, tokens *auth.TokenIssuer, uploadDir string, maxUploadBytes int64) *AccountService {
	return &AccountService{
		storage:        storage,
		tokens:         tokens,
		uploadDir:      uploadDir,
		maxUploadBytes: maxUploadBytes,
	}
}

// Register creates a new account. Username and email must be unused and the
// password confirmation must match.
func (s *AccountService) Register(ctx context.Context, username, email, password, confirm string) (int64, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" || email == "" || password == "" {
		return 0, ErrMissingFields
	}
	if password != confirm {
		return 0, ErrPasswordMismatch
	}

	taken, err := s.storage.UsernameExists(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return 0, ErrUsernameTaken
	}
	taken, err = s.storage.EmailExists(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return 0, ErrEmailTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, err
	}

	id, err := s.storage.CreateUser(ctx, username, email, hash)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", id, "username", username)
	return id, nil
}

// Login verifies the credentials and issues a JWT. The identifier may be a
// username or an email address.
func (s *AccountService) Login(ctx context.Context, identifier, password string) (string, storage.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return "", storage.User{}, ErrInvalidCredentials
	}

	user, err := s.storage.UserByUsernameOrEmail(ctx, identifier)
	if errors.Is(err, storage.ErrNotFound) {
		return "", storage.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", storage.User{}, fmt.Errorf("load user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", storage.User{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, time.Now())
	if err != nil {
		return "", storage.User{}, fmt.Errorf("issue token: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return token, user, nil
}

// Profile returns the user's account record.
func (s *AccountService) Profile(ctx context.Context, userID int64) (storage.User, error) {
	return s.storage.UserByID(ctx, userID)
}

// UpdateProfile saves the editable profile fields.
func (s *AccountService) UpdateProfile(ctx context.Context, userID int64, p storage.ProfileParams) error {
	if p.TanggalLahir != "" {
		if _, err := core.ParseDate(p.TanggalLahir); err != nil {
			return err
		}
	}
	if err := s.storage.UpdateProfile(ctx, userID, p); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// ChangePassword re-verifies the current password before setting a new one.
func (s *AccountService) ChangePassword(ctx context.Context, userID int64, current, next, confirm string) error {
	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, current) {
		return ErrWrongPassword
	}
	if next != confirm {
		return ErrPasswordMismatch
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.storage.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	slog.InfoContext(ctx, "Password changed", "user_id", userID)
	return nil
}

// SavePhoto stores an uploaded profile photo under a fresh random name and
// records it on the user. Returns the stored file name.
func (s *AccountService) SavePhoto(ctx context.Context, userID int64, originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !photoExtensions[ext] {
		return "", ErrUnsupportedPhoto
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.uploadDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create photo file: %w", err)
	}

	// Read one byte past the limit so oversized uploads are detectable.
	n, err := io.Copy(f, io.LimitReader(r, s.maxUploadBytes+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write photo: %w", err)
	}
	if n > s.maxUploadBytes {
		os.Remove(path)
		return "", ErrPhotoTooLarge
	}

	if err := s.storage.UpdatePhoto(ctx, userID, name); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("record photo: %w", err)
	}

	slog.InfoContext(ctx, "Profile photo updated", "user_id", userID, "file", name)
	return name, nil
}
