package http

import (
	"net/http"
	"strings"

	"keuangan/internal/core"
)

func (s *Server) handleSavings(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	balance, err := s.finance.SavingsBalance(r.Context(), uid)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondData(w, map[string]any{
		"tabungan_cents": balance.Cents,
		"tabungan":       balance.FormatRupiah(),
	})
}

type manageSavingsRequest struct {
	Aksi    string `json:"aksi"`
	Jumlah  string `json:"jumlah"`
	Tanggal string `json:"tanggal"`
}

func (s *Server) handleManageSavings(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req manageSavingsRequest
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
	amount := core.Money{Cents: cents}

	var message string
	switch strings.ToLower(sanitizeInput(req.Aksi)) {
	case "tambah":
		err = s.finance.Deposit(r.Context(), uid, date, amount)
		message = "berhasil menabung"
	case "ambil":
		err = s.finance.Withdraw(r.Context(), uid, date, amount)
		message = "berhasil mengambil tabungan"
	default:
		respondError(w, http.StatusUnprocessableEntity, "aksi harus tambah atau ambil")
		return
	}
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.invalidateUser(uid)

	balance, err := s.finance.SavingsBalance(r.Context(), uid)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondMessage(w, message, map[string]any{
		"tabungan_cents": balance.Cents,
		"tabungan":       balance.FormatRupiah(),
	})
}
