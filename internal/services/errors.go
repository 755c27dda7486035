package services

import (
	"errors"
	"fmt"

	"keuangan/internal/core"
)

var (
	ErrMissingFields      = errors.New("semua field wajib diisi")
	ErrPasswordMismatch   = errors.New("konfirmasi password tidak cocok")
	ErrUsernameTaken      = errors.New("username sudah digunakan")
	ErrEmailTaken         = errors.New("email sudah terdaftar")
	ErrInvalidCredentials = errors.New("username atau password salah")
	ErrWrongPassword      = errors.New("password salah")
	ErrUnsupportedPhoto   = errors.New("format foto tidak didukung")
	ErrPhotoTooLarge      = errors.New("ukuran foto melebihi batas")
)

// InsufficientFundsError reports a savings move that exceeds what the
// user actually has, with both sides of the comparison.
type InsufficientFundsError struct {
	Requested core.Money
	Available core.Money
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("saldo tidak mencukupi: butuh %s, tersedia %s",
		e.Requested.FormatRupiah(), e.Available.FormatRupiah())
}
