package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"keuangan/internal/auth"
	"keuangan/internal/storage"
)

func newAccountTest(t *testing.T) *AccountService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	tokens := auth.NewTokenIssuer("test-secret-at-least-16b", time.Hour)
	return NewAccountService(repo, tokens, filepath.Join(t.TempDir(), "uploads"), 1024)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAccountTest(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, "budi", "Budi@Example.com", "rahasia123", "rahasia123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	// Login works with either username or email; email matching is
	// case-insensitive because registration lowercases it.
	for _, ident := range []string{"budi", "budi@example.com"} {
		token, user, err := svc.Login(ctx, ident, "rahasia123")
		if err != nil {
			t.Fatalf("login %q: %v", ident, err)
		}
		if user.ID != id {
			t.Fatalf("login %q: id = %d, want %d", ident, user.ID, id)
		}
		if token == "" {
			t.Fatalf("login %q: empty token", ident)
		}
	}

	if _, _, err := svc.Login(ctx, "budi", "salah"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(ctx, "nobody", "rahasia123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: got %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newAccountTest(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "budi", "budi@example.com", "", ""); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("empty password: got %v, want ErrMissingFields", err)
	}
	if _, err := svc.Register(ctx, "budi", "budi@example.com", "rahasia123", "beda"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("confirm mismatch: got %v, want ErrPasswordMismatch", err)
	}
	if _, err := svc.Register(ctx, "budi", "budi@example.com", "abc", "abc"); !errors.Is(err, auth.ErrPasswordTooShort) {
		t.Fatalf("short password: got %v, want ErrPasswordTooShort", err)
	}

	if _, err := svc.Register(ctx, "budi", "budi@example.com", "rahasia123", "rahasia123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, "budi", "lain@example.com", "rahasia123", "rahasia123"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate username: got %v, want ErrUsernameTaken", err)
	}
	if _, err := svc.Register(ctx, "lain", "budi@example.com", "rahasia123", "rahasia123"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate email: got %v, want ErrEmailTaken", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc := newAccountTest(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, "siti", "siti@example.com", "rahasia123", "rahasia123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.ChangePassword(ctx, id, "salah", "barubaru1", "barubaru1"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("wrong current: got %v, want ErrWrongPassword", err)
	}
	if err := svc.ChangePassword(ctx, id, "rahasia123", "barubaru1", "beda"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("confirm mismatch: got %v, want ErrPasswordMismatch", err)
	}

	if err := svc.ChangePassword(ctx, id, "rahasia123", "barubaru1", "barubaru1"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, _, err := svc.Login(ctx, "siti", "barubaru1"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, _, err := svc.Login(ctx, "siti", "rahasia123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
}

func TestUpdateProfileValidatesBirthDate(t *testing.T) {
	svc := newAccountTest(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, "andi", "andi@example.com", "rahasia123", "rahasia123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.UpdateProfile(ctx, id, storage.ProfileParams{TanggalLahir: "01/05/1990"}); err == nil {
		t.Fatal("expected error for malformed birth date")
	}

	err = svc.UpdateProfile(ctx, id, storage.ProfileParams{
		NamaLengkap:  "Andi Wijaya",
		TanggalLahir: "1990-05-01",
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	user, err := svc.Profile(ctx, id)
	if err != nil || user.NamaLengkap != "Andi Wijaya" {
		t.Fatalf("profile = %+v (%v)", user, err)
	}
}

func TestSavePhoto(t *testing.T) {
	svc := newAccountTest(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, "dewi", "dewi@example.com", "rahasia123", "rahasia123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	name, err := svc.SavePhoto(ctx, id, "avatar.PNG", strings.NewReader("fake image data"))
	if err != nil {
		t.Fatalf("save photo: %v", err)
	}
	if !strings.HasSuffix(name, ".png") {
		t.Fatalf("stored name %q should keep the lowercased extension", name)
	}
	if _, err := os.Stat(filepath.Join(svc.uploadDir, name)); err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	user, err := svc.Profile(ctx, id)
	if err != nil || user.FotoProfil != name {
		t.Fatalf("foto_profil = %q (%v), want %q", user.FotoProfil, err, name)
	}

	if _, err := svc.SavePhoto(ctx, id, "notes.txt", strings.NewReader("x")); !errors.Is(err, ErrUnsupportedPhoto) {
		t.Fatalf("bad extension: got %v, want ErrUnsupportedPhoto", err)
	}

	big := strings.Repeat("a", 2048)
	if _, err := svc.SavePhoto(ctx, id, "big.jpg", strings.NewReader(big)); !errors.Is(err, ErrPhotoTooLarge) {
		t.Fatalf("oversized upload: got %v, want ErrPhotoTooLarge", err)
	}
}
