package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"keuangan/internal/core"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientSavings = errors.New("insufficient savings balance")
)

// User is a stored account row.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	NamaLengkap  string
	TanggalLahir string
	JenisKelamin string
	NoTelepon    string
	Alamat       string
	FotoProfil   string
	CreatedAt    time.Time
}

// ProfileParams carries the editable profile fields.
type ProfileParams struct {
	NamaLengkap  string
	TanggalLahir string
	JenisKelamin string
	NoTelepon    string
	Alamat       string
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateUser inserts the account and its zero tabungan row in one
// transaction, so every user has a savings balance from registration.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create user: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, email, password, created_at) VALUES (?, ?, ?, ?)`,
		username, email, passwordHash, now)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	userID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tabungan (user_id, jumlah_cents, updated_at) VALUES (?, 0, ?)`,
		userID, now); err != nil {
		return 0, fmt.Errorf("insert tabungan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", userID, "username", username)
	return userID, nil
}

const userColumns = `id, username, email, password, nama_lengkap,
	COALESCE(tanggal_lahir, ''), COALESCE(jenis_kelamin, ''),
	no_telepon, alamat, foto_profil, created_at`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.NamaLengkap,
		&u.TanggalLahir, &u.JenisKelamin, &u.NoTelepon, &u.Alamat, &u.FotoProfil, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) UserByID(ctx context.Context, id int64) (User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// UserByUsernameOrEmail resolves a login identifier against either
// column, matching the original login behavior.
func (r *SQLiteRepository) UserByUsernameOrEmail(ctx context.Context, q string) (User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? OR email = ?`, q, q)
	return scanUser(row)
}

func (r *SQLiteRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM users WHERE username = ? LIMIT 1`, username)
}

func (r *SQLiteRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM users WHERE email = ? LIMIT 1`, email)
}

func (r *SQLiteRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("existence check: %w", err)
	}
	return true, nil
}

func (r *SQLiteRepository) UpdateProfile(ctx context.Context, userID int64, p ProfileParams) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET nama_lengkap = ?, tanggal_lahir = ?, jenis_kelamin = ?,
			no_telepon = ?, alamat = ? WHERE id = ?`,
		p.NamaLengkap, nullable(p.TanggalLahir), nullable(p.JenisKelamin),
		p.NoTelepon, p.Alamat, userID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET password = ? WHERE id = ?`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdatePhoto(ctx context.Context, userID int64, photoPath string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET foto_profil = ? WHERE id = ?`, photoPath, userID)
	if err != nil {
		return fmt.Errorf("update photo: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transaksi (user_id, tanggal, tipe, kategori, jumlah_cents, keterangan, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Date.String(), string(t.Kind), t.Category, t.Amount.Cents, t.Note, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaksi_id", id,
		"user_id", t.UserID,
		"tipe", string(t.Kind),
		"kategori", t.Category,
		"amount_cents", t.Amount.Cents)
	return id, nil
}

const transactionColumns = `id, user_id, tanggal, tipe, kategori, jumlah_cents, keterangan, created_at`

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	var txs []core.Transaction
	for rows.Next() {
		var (
			t       core.Transaction
			tanggal string
			tipe    string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &tanggal, &tipe, &t.Category,
			&t.Amount.Cents, &t.Note, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		d, err := core.ParseDate(tanggal)
		if err != nil {
			return nil, fmt.Errorf("parse stored tanggal %q: %w", tanggal, err)
		}
		t.Date = d
		t.Kind = core.Kind(tipe)
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// ListTransactions returns the user's history, most recent first.
// limit <= 0 returns everything.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transaksi
		WHERE user_id = ? ORDER BY tanggal DESC, created_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return scanTransactions(rows)
}

// FilterTransactions returns the ledger window: filters, descending
// (tanggal, created_at) order, limit applied before anything else
// downstream sees the rows.
func (r *SQLiteRepository) FilterTransactions(ctx context.Context, userID int64, f core.LedgerFilter) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transaksi WHERE user_id = ?`
	args := []any{userID}
	if f.Category != "" {
		query += ` AND kategori = ?`
		args = append(args, f.Category)
	}
	if !f.DateFrom.IsZero() {
		query += ` AND tanggal >= ?`
		args = append(args, f.DateFrom.String())
	}
	if !f.DateTo.IsZero() {
		query += ` AND tanggal <= ?`
		args = append(args, f.DateTo.String())
	}
	query += ` ORDER BY tanggal DESC, created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("filter transactions: %w", err)
	}
	return scanTransactions(rows)
}

// TransactionSums aggregates income and expense for a user. Savings
// moves count as expense: money parked in savings has left the
// available balance.
func (r *SQLiteRepository) TransactionSums(ctx context.Context, userID int64) (income, expense core.Money, err error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN tipe = 'Pemasukan' THEN jumlah_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN tipe IN ('Pengeluaran', 'Tabungan') THEN jumlah_cents ELSE 0 END), 0)
		FROM transaksi WHERE user_id = ?`, userID)
	if err = row.Scan(&income.Cents, &expense.Cents); err != nil {
		return core.Money{}, core.Money{}, fmt.Errorf("sum transactions: %w", err)
	}
	return income, expense, nil
}

// ExpenseByCategory groups Pengeluaran totals per kategori for the
// dashboard charts.
func (r *SQLiteRepository) ExpenseByCategory(ctx context.Context, userID int64) ([]core.CategoryAmount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT kategori, SUM(jumlah_cents) FROM transaksi
		WHERE user_id = ? AND tipe = 'Pengeluaran'
		GROUP BY kategori ORDER BY SUM(jumlah_cents) DESC, kategori`, userID)
	if err != nil {
		return nil, fmt.Errorf("expense by category: %w", err)
	}
	defer rows.Close()

	var result []core.CategoryAmount
	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Name, &ca.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		result = append(result, ca)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category sums: %w", err)
	}
	return result, nil
}

// SavingsBalance returns the user's tabungan, lazily creating the row
// with a zero balance on first access.
func (r *SQLiteRepository) SavingsBalance(ctx context.Context, userID int64) (core.Money, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO tabungan (user_id, jumlah_cents, updated_at) VALUES (?, 0, ?)`,
		userID, time.Now().UTC()); err != nil {
		return core.Money{}, fmt.Errorf("ensure tabungan row: %w", err)
	}
	var balance core.Money
	err := r.db.QueryRowContext(ctx,
		`SELECT jumlah_cents FROM tabungan WHERE user_id = ?`, userID).Scan(&balance.Cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("read tabungan: %w", err)
	}
	return balance, nil
}

// DepositSavings increments the tabungan balance and records the
// mirror transaction as one unit. mirror carries the owner, amount,
// and the SavingsMove bookkeeping fields.
func (r *SQLiteRepository) DepositSavings(ctx context.Context, mirror core.Transaction) error {
	return r.savingsTransfer(ctx, mirror, +1)
}

// WithdrawSavings decrements the tabungan balance and records the
// mirror Income transaction as one unit. The decrement is guarded so
// the balance can never go negative, even under concurrent withdrawals;
// a failed guard surfaces as ErrInsufficientSavings.
func (r *SQLiteRepository) WithdrawSavings(ctx context.Context, mirror core.Transaction) error {
	return r.savingsTransfer(ctx, mirror, -1)
}

func (r *SQLiteRepository) savingsTransfer(ctx context.Context, mirror core.Transaction, sign int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin savings transfer: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO tabungan (user_id, jumlah_cents, updated_at) VALUES (?, 0, ?)`,
		mirror.UserID, now); err != nil {
		return fmt.Errorf("ensure tabungan row: %w", err)
	}

	var res sql.Result
	if sign > 0 {
		res, err = tx.ExecContext(ctx,
			`UPDATE tabungan SET jumlah_cents = jumlah_cents + ?, updated_at = ? WHERE user_id = ?`,
			mirror.Amount.Cents, now, mirror.UserID)
	} else {
		res, err = tx.ExecContext(ctx,
			`UPDATE tabungan SET jumlah_cents = jumlah_cents - ?, updated_at = ?
			 WHERE user_id = ? AND jumlah_cents >= ?`,
			mirror.Amount.Cents, now, mirror.UserID, mirror.Amount.Cents)
	}
	if err != nil {
		return fmt.Errorf("update tabungan: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("tabungan rows affected: %w", err)
	}
	if affected == 0 {
		return ErrInsufficientSavings
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transaksi (user_id, tanggal, tipe, kategori, jumlah_cents, keterangan, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		mirror.UserID, mirror.Date.String(), string(mirror.Kind), mirror.Category,
		mirror.Amount.Cents, mirror.Note, now); err != nil {
		return fmt.Errorf("record mirror transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit savings transfer: %w", err)
	}

	slog.InfoContext(ctx, "Savings transfer applied",
		"user_id", mirror.UserID,
		"tipe", string(mirror.Kind),
		"amount_cents", mirror.Amount.Cents)
	return nil
}

// ResetFinancialData deletes every transaction and zeroes the tabungan
// balance for one user, atomically. Profile data is untouched.
func (r *SQLiteRepository) ResetFinancialData(ctx context.Context, userID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `DELETE FROM transaksi WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO tabungan (user_id, jumlah_cents, updated_at) VALUES (?, 0, ?)`,
		userID, now); err != nil {
		return fmt.Errorf("ensure tabungan row: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE tabungan SET jumlah_cents = 0, updated_at = ? WHERE user_id = ?`,
		now, userID); err != nil {
		return fmt.Errorf("reset tabungan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}

	slog.InfoContext(ctx, "Financial data reset", "user_id", userID)
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
