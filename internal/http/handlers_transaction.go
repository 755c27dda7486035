package http

import (
	"net/http"
	"strconv"
	"strings"

	"keuangan/internal/core"
)

type transactionRequest struct {
	Tanggal    string `json:"tanggal"`
	Tipe       string `json:"tipe"`
	Kategori   string `json:"kategori"`
	Jumlah     string `json:"jumlah"`
	Keterangan string `json:"keterangan"`
}

type transactionPayload struct {
	ID         int64  `json:"id"`
	Tanggal    string `json:"tanggal"`
	Tipe       string `json:"tipe"`
	Kategori   string `json:"kategori"`
	Jumlah     int64  `json:"jumlah_cents"`
	JumlahText string `json:"jumlah"`
	Keterangan string `json:"keterangan,omitempty"`
}

func toTransactionPayload(t core.Transaction) transactionPayload {
	return transactionPayload{
		ID:         t.ID,
		Tanggal:    t.Date.String(),
		Tipe:       string(t.Kind),
		Kategori:   t.Category,
		Jumlah:     t.Amount.Cents,
		JumlahText: t.Amount.FormatRupiah(),
		Keterangan: t.Note,
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "format permintaan tidak valid")
		return
	}

	date, err := parseDateOrToday(req.Tanggal)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "tanggal tidak valid")
		return
	}
	cents, err := core.ParseDecimalToCents(strings.TrimSpace(req.Jumlah))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "jumlah tidak valid")
		return
	}

	tx := core.Transaction{
		UserID:   uid,
		Date:     date,
		Kind:     core.Kind(sanitizeInput(req.Tipe)),
		Category: sanitizeInput(req.Kategori),
		Amount:   core.Money{Cents: cents},
		Note:     sanitizeInput(req.Keterangan),
	}

	id, err := s.finance.RecordTransaction(r.Context(), tx)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateUser(uid)
	tx.ID = id
	respondMessage(w, "transaksi berhasil dicatat", toTransactionPayload(tx))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	limit := 0
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	txs, err := s.finance.History(r.Context(), uid, limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	payload := make([]transactionPayload, 0, len(txs))
	for _, tx := range txs {
		payload = append(payload, toTransactionPayload(tx))
	}
	respondData(w, payload)
}

const defaultLedgerLimit = 10

type ledgerEntryPayload struct {
	Tanggal    string `json:"tanggal"`
	Keterangan string `json:"keterangan"`
	Kategori   string `json:"kategori"`
	Debit      int64  `json:"debit_cents"`
	Kredit     int64  `json:"kredit_cents"`
	Saldo      int64  `json:"saldo_cents"`
}

type ledgerPayload struct {
	Entri       []ledgerEntryPayload `json:"entri"`
	TotalDebit  int64                `json:"total_debit_cents"`
	TotalKredit int64                `json:"total_kredit_cents"`
	SaldoAkhir  int64                `json:"saldo_akhir_cents"`
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	// A recent-activity view by default; limit=0 asks for everything.
	q := r.URL.Query()
	filter := core.LedgerFilter{
		Category: sanitizeInput(q.Get("kategori")),
		Limit:    defaultLedgerLimit,
	}
	if v := strings.TrimSpace(q.Get("tanggal_mulai")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "tanggal awal tidak valid")
			return
		}
		filter.DateFrom = d
	}
	if v := strings.TrimSpace(q.Get("tanggal_akhir")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "tanggal akhir tidak valid")
			return
		}
		filter.DateTo = d
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Limit = n
		}
	}

	ledger, err := s.finance.Ledger(r.Context(), uid, filter)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	payload := ledgerPayload{
		Entri:       make([]ledgerEntryPayload, 0, len(ledger.Entries)),
		TotalDebit:  ledger.TotalDebit.Cents,
		TotalKredit: ledger.TotalKredit.Cents,
		SaldoAkhir:  ledger.SaldoAkhir.Cents,
	}
	for _, e := range ledger.Entries {
		payload.Entri = append(payload.Entri, ledgerEntryPayload{
			Tanggal:    e.Date.String(),
			Keterangan: e.Note,
			Kategori:   e.Category,
			Debit:      e.Debit.Cents,
			Kredit:     e.Kredit.Cents,
			Saldo:      e.Balance.Cents,
		})
	}
	respondData(w, payload)
}
