package core

import "math"

// CategoryAmount is an amount aggregated by category name, feeding the
// dashboard charts.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Summary is the dashboard aggregate for one user.
//
// Expense includes SavingsMove transactions: money moved into savings
// leaves the available balance (saldo) and shows up again in Savings,
// so it is accounted in two places on purpose.
type Summary struct {
	Income      Money
	Expense     Money
	Saldo       Money
	ArusKas     Money
	Savings     Money
	HealthScore int
}

// NewSummary derives the dashboard summary from the aggregated sums.
// Saldo and arus kas are the same quantity in this system.
func NewSummary(income, expense, savings Money) Summary {
	saldo := income.Sub(expense)
	return Summary{
		Income:      income,
		Expense:     expense,
		Saldo:       saldo,
		ArusKas:     saldo,
		Savings:     savings,
		HealthScore: HealthScore(income, expense, saldo, savings),
	}
}

// HealthScore computes the bounded [0,100] financial posture heuristic.
//
// Base score 50, then:
//   - savings factor: up to +20 from the savings/income ratio
//   - saldo factor: up to +15 from the saldo/income ratio, -15 when negative
//   - arus kas factor: +10 when saldo is positive, -10 otherwise
//   - expense ratio: +5 below 0.5, -10 above 0.9
//
// Rounding is half-to-even.
func HealthScore(income, expense, saldo, savings Money) int {
	score := 50.0

	inc := float64(income.Cents)
	exp := float64(expense.Cents)
	sal := float64(saldo.Cents)
	sav := float64(savings.Cents)

	if sav > 0 && inc > 0 {
		score += math.Min(20, sav/inc*100)
	}

	if sal > 0 && inc > 0 {
		score += math.Min(15, sal/inc*50)
	} else if sal < 0 {
		score -= 15
	}

	if sal > 0 {
		score += 10
	} else {
		score -= 10
	}

	if inc > 0 {
		ratio := exp / inc
		if ratio < 0.5 {
			score += 5
		} else if ratio > 0.9 {
			score -= 10
		}
	}

	rounded := int(math.RoundToEven(score))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}
