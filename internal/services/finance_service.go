package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"keuangan/internal/auth"
	"keuangan/internal/core"
	"keuangan/internal/storage"
)

const (
	savingsCategory = "Tabungan"
	depositNote     = "Menabung"
	withdrawNote    = "Ambil dari tabungan"
)

// TransactionPublisher publishes transaction recorded events. Satisfied by
// *amqp.Client; nil means events are disabled.
type TransactionPublisher interface {
	PublishTransactionRecorded(ctx context.Context, transactionID, userID int64, tipe string) error
}

// ChartData feeds the dashboard charts: the income/expense pair plus the
// expense breakdown per category.
type ChartData struct {
	Income     core.Money
	Expense    core.Money
	ByCategory []core.CategoryAmount
}

// FinanceService orchestrates transaction, savings and reporting operations
// across SQLite and AMQP.
type FinanceService struct {
	storage   *storage.SQLiteRepository
	publisher TransactionPublisher
}

func NewFinanceService(storage *storage.SQLiteRepository, publisher TransactionPublisher) *FinanceService {
	return &FinanceService{
		storage:   storage,
		publisher: publisher,
	}
}

// RecordTransaction validates and saves a transaction, then publishes a
// recorded event. Event publishing is best-effort: the transaction is already
// durable when it fails.
func (s *FinanceService) RecordTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}

	id, err := s.storage.CreateTransaction(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	s.publishRecorded(ctx, id, tx.UserID, string(tx.Kind))
	return id, nil
}

func (s *FinanceService) publishRecorded(ctx context.Context, id, userID int64, tipe string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionRecorded(ctx, id, userID, tipe); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction recorded message",
			"transaksi_id", id, "user_id", userID, "error", err)
		// Don't fail the request - the transaction is saved locally
	}
}

// Summary aggregates totals for the dashboard, including the health score.
func (s *FinanceService) Summary(ctx context.Context, userID int64) (core.Summary, error) {
	income, expense, err := s.storage.TransactionSums(ctx, userID)
	if err != nil {
		return core.Summary{}, fmt.Errorf("sum transactions: %w", err)
	}
	savings, err := s.storage.SavingsBalance(ctx, userID)
	if err != nil {
		return core.Summary{}, fmt.Errorf("savings balance: %w", err)
	}
	return core.NewSummary(income, expense, savings), nil
}

// ChartData returns the aggregates behind the dashboard charts.
func (s *FinanceService) ChartData(ctx context.Context, userID int64) (ChartData, error) {
	income, expense, err := s.storage.TransactionSums(ctx, userID)
	if err != nil {
		return ChartData{}, fmt.Errorf("sum transactions: %w", err)
	}
	byCategory, err := s.storage.ExpenseByCategory(ctx, userID)
	if err != nil {
		return ChartData{}, fmt.Errorf("expense by category: %w", err)
	}
	return ChartData{Income: income, Expense: expense, ByCategory: byCategory}, nil
}

// History lists the user's transactions, most recent first. limit <= 0 means
// all of them.
func (s *FinanceService) History(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, userID, limit)
}

// Ledger builds the running-balance view over the filtered window.
func (s *FinanceService) Ledger(ctx context.Context, userID int64, f core.LedgerFilter) (core.Ledger, error) {
	txs, err := s.storage.FilterTransactions(ctx, userID, f)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("filter transactions: %w", err)
	}
	return core.BuildLedger(txs), nil
}

// SavingsBalance returns the current tabungan balance.
func (s *FinanceService) SavingsBalance(ctx context.Context, userID int64) (core.Money, error) {
	return s.storage.SavingsBalance(ctx, userID)
}

// Deposit moves money from the free balance into savings. The amount must
// not exceed what income minus expenses leaves available.
func (s *FinanceService) Deposit(ctx context.Context, userID int64, date core.Date, amount core.Money) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	if err := date.Validate(); err != nil {
		return err
	}

	income, expense, err := s.storage.TransactionSums(ctx, userID)
	if err != nil {
		return fmt.Errorf("sum transactions: %w", err)
	}
	saldo := income.Sub(expense)
	if amount.Cents > saldo.Cents {
		return &InsufficientFundsError{Requested: amount, Available: saldo}
	}

	mirror := core.Transaction{
		UserID:   userID,
		Date:     date,
		Kind:     core.SavingsMove,
		Category: savingsCategory,
		Amount:   amount,
		Note:     depositNote,
	}
	if err := s.storage.DepositSavings(ctx, mirror); err != nil {
		return fmt.Errorf("deposit savings: %w", err)
	}

	slog.InfoContext(ctx, "Savings deposit recorded",
		"user_id", userID, "amount_cents", amount.Cents)
	return nil
}

// Withdraw moves money out of savings back into the free balance. The
// storage layer guards against overdrawing the tabungan row.
func (s *FinanceService) Withdraw(ctx context.Context, userID int64, date core.Date, amount core.Money) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	if err := date.Validate(); err != nil {
		return err
	}

	mirror := core.Transaction{
		UserID:   userID,
		Date:     date,
		Kind:     core.Income,
		Category: savingsCategory,
		Amount:   amount,
		Note:     withdrawNote,
	}
	err := s.storage.WithdrawSavings(ctx, mirror)
	if errors.Is(err, storage.ErrInsufficientSavings) {
		available, balErr := s.storage.SavingsBalance(ctx, userID)
		if balErr != nil {
			available = core.Money{}
		}
		return &InsufficientFundsError{Requested: amount, Available: available}
	}
	if err != nil {
		return fmt.Errorf("withdraw savings: %w", err)
	}

	slog.InfoContext(ctx, "Savings withdrawal recorded",
		"user_id", userID, "amount_cents", amount.Cents)
	return nil
}

// ResetFinancialData wipes the user's transactions and savings after
// re-verifying their password.
func (s *FinanceService) ResetFinancialData(ctx context.Context, userID int64, password string) error {
	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return ErrWrongPassword
	}

	if err := s.storage.ResetFinancialData(ctx, userID); err != nil {
		return fmt.Errorf("reset financial data: %w", err)
	}

	slog.InfoContext(ctx, "Financial data reset", "user_id", userID)
	return nil
}
