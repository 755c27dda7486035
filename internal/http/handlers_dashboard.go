package http

import (
	"net/http"
)

type summaryPayload struct {
	Pemasukan       int64  `json:"pemasukan_cents"`
	Pengeluaran     int64  `json:"pengeluaran_cents"`
	Saldo           int64  `json:"saldo_cents"`
	ArusKas         int64  `json:"arus_kas_cents"`
	Tabungan        int64  `json:"tabungan_cents"`
	SkorKesehatan   int    `json:"skor_kesehatan"`
	PemasukanText   string `json:"pemasukan"`
	PengeluaranText string `json:"pengeluaran"`
	SaldoText       string `json:"saldo"`
	TabunganText    string `json:"tabungan"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	sum, found := s.summaryCache.Get(userCacheKey(uid))
	if !found {
		var err error
		sum, err = s.finance.Summary(r.Context(), uid)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		s.summaryCache.Set(userCacheKey(uid), sum)
	}

	respondData(w, summaryPayload{
		Pemasukan:       sum.Income.Cents,
		Pengeluaran:     sum.Expense.Cents,
		Saldo:           sum.Saldo.Cents,
		ArusKas:         sum.ArusKas.Cents,
		Tabungan:        sum.Savings.Cents,
		SkorKesehatan:   sum.HealthScore,
		PemasukanText:   sum.Income.FormatRupiah(),
		PengeluaranText: sum.Expense.FormatRupiah(),
		SaldoText:       sum.Saldo.FormatRupiah(),
		TabunganText:    sum.Savings.FormatRupiah(),
	})
}

type categoryPayload struct {
	Kategori string `json:"kategori"`
	Jumlah   int64  `json:"jumlah_cents"`
}

type chartDataPayload struct {
	Pemasukan   int64             `json:"pemasukan_cents"`
	Pengeluaran int64             `json:"pengeluaran_cents"`
	PerKategori []categoryPayload `json:"per_kategori"`
}

func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	data, found := s.chartCache.Get(userCacheKey(uid))
	if !found {
		var err error
		data, err = s.finance.ChartData(r.Context(), uid)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		s.chartCache.Set(userCacheKey(uid), data)
	}

	payload := chartDataPayload{
		Pemasukan:   data.Income.Cents,
		Pengeluaran: data.Expense.Cents,
		PerKategori: make([]categoryPayload, 0, len(data.ByCategory)),
	}
	for _, ca := range data.ByCategory {
		payload.PerKategori = append(payload.PerKategori, categoryPayload{
			Kategori: ca.Name,
			Jumlah:   ca.Amount.Cents,
		})
	}
	respondData(w, payload)
}
