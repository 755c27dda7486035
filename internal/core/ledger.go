package core

// LedgerFilter narrows the transaction window for a buku besar report.
// Category matches exactly when set; the date range is inclusive on
// both ends. Limit keeps the N most recent transactions, so the report
// totals cover only that window (a recent-activity view, not a full
// statement).
type LedgerFilter struct {
	Category string
	DateFrom Date
	DateTo   Date
	Limit    int
}

// LedgerEntry is one row of the buku besar: income debits, everything
// else (expenses and savings moves) credits.
type LedgerEntry struct {
	Date     Date
	Note     string
	Category string
	Debit    Money
	Kredit   Money
	Balance  Money
}

// Ledger is the rendered buku besar over a filtered window.
type Ledger struct {
	Entries     []LedgerEntry
	TotalDebit  Money
	TotalKredit Money
	SaldoAkhir  Money
}

// BuildLedger turns a filtered transaction window into the buku besar.
//
// txs must be ordered most-recent-first (date descending, creation
// time descending as tie-break), exactly as the store returns them
// with its limit already applied. Entries come out in chronological
// order with a running balance; totals are computed over the same
// window, so SaldoAkhir always equals the last entry's balance.
func BuildLedger(txs []Transaction) Ledger {
	var l Ledger
	l.Entries = make([]LedgerEntry, 0, len(txs))

	running := Money{}
	for i := len(txs) - 1; i >= 0; i-- {
		t := txs[i]
		e := LedgerEntry{
			Date:     t.Date,
			Note:     t.Note,
			Category: t.Category,
		}
		if e.Note == "" {
			e.Note = "-"
		}
		if t.Kind == Income {
			e.Debit = t.Amount
			l.TotalDebit = l.TotalDebit.Add(t.Amount)
		} else {
			e.Kredit = t.Amount
			l.TotalKredit = l.TotalKredit.Add(t.Amount)
		}
		running = running.Add(e.Debit).Sub(e.Kredit)
		e.Balance = running
		l.Entries = append(l.Entries, e)
	}

	l.SaldoAkhir = l.TotalDebit.Sub(l.TotalKredit)
	return l
}
