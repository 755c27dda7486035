package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"keuangan/internal/auth"
	"keuangan/internal/services"
	"keuangan/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	tokens := auth.NewTokenIssuer("test-secret-at-least-16b", time.Hour)
	finance := services.NewFinanceService(repo, nil)
	accounts := services.NewAccountService(repo, tokens, filepath.Join(t.TempDir(), "uploads"), 1<<20)

	srv := NewServer(":0", finance, accounts, tokens, "")
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	var resp apiResponse
	if ct := rec.Header().Get("Content-Type"); strings.Contains(ct, "application/json") && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, resp
}

func registerAndLogin(t *testing.T, srv *Server) string {
	t.Helper()
	rec, resp := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username":            "budi",
		"email":               "budi@example.com",
		"password":            "rahasia123",
		"konfirmasi_password": "rahasia123",
	})
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("register: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec, resp = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identitas": "budi",
		"password":  "rahasia123",
	})
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("login: status=%d body=%s", rec.Code, rec.Body.String())
	}
	data := resp.Data.(map[string]any)
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatalf("login response has no token: %s", rec.Body.String())
	}
	return token
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		srv.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", path, rec.Code)
		}
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodGet, "/api/summary", "", nil)
	if rec.Code != http.StatusUnauthorized || resp.Success {
		t.Fatalf("no token: status=%d body=%s", rec.Code, rec.Body.String())
	}
	if resp.Message == "" {
		t.Fatalf("no token: rejection should carry a message, body=%s", rec.Body.String())
	}
	rec, resp = doJSON(t, srv, http.MethodGet, "/api/summary", "not-a-token", nil)
	if rec.Code != http.StatusUnauthorized || resp.Success {
		t.Fatalf("bad token: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRegisterValidationOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username":            "budi",
		"email":               "budi@example.com",
		"password":            "rahasia123",
		"konfirmasi_password": "beda",
	})
	if rec.Code != http.StatusUnprocessableEntity || resp.Success {
		t.Fatalf("mismatch confirm: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestLoginWrongPassword(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv)

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identitas": "budi",
		"password":  "salah",
	})
	if rec.Code != http.StatusUnauthorized || resp.Success {
		t.Fatalf("wrong password: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestTransactionAndSummaryFlow(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv)

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/transaksi", token, map[string]string{
		"tanggal":  "2025-06-01",
		"tipe":     "Pemasukan",
		"kategori": "Gaji",
		"jumlah":   "5000000",
	})
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("create income: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec, resp = doJSON(t, srv, http.MethodPost, "/api/transaksi", token, map[string]string{
		"tanggal":    "2025-06-02",
		"tipe":       "Pengeluaran",
		"kategori":   "Makan",
		"jumlah":     "1500000",
		"keterangan": "makan bulanan",
	})
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("create expense: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec, resp = doJSON(t, srv, http.MethodGet, "/api/summary", token, nil)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("summary: status=%d body=%s", rec.Code, rec.Body.String())
	}
	data := resp.Data.(map[string]any)
	if data["pemasukan_cents"].(float64) != 500000000 {
		t.Errorf("pemasukan = %v", data["pemasukan_cents"])
	}
	if data["saldo_cents"].(float64) != 350000000 {
		t.Errorf("saldo = %v", data["saldo_cents"])
	}
	if _, ok := data["skor_kesehatan"]; !ok {
		t.Error("summary missing skor_kesehatan")
	}

	rec, resp = doJSON(t, srv, http.MethodGet, "/api/riwayat?limit=1", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("riwayat: status=%d", rec.Code)
	}
	items := resp.Data.([]any)
	if len(items) != 1 {
		t.Fatalf("riwayat limit: got %d items", len(items))
	}
	first := items[0].(map[string]any)
	if first["kategori"] != "Makan" {
		t.Errorf("most recent first, got %v", first["kategori"])
	}
}

func TestTransactionValidationOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv)

	cases := []struct {
		name string
		body map[string]string
	}{
		{"bad amount", map[string]string{"tanggal": "2025-06-01", "tipe": "Pemasukan", "kategori": "Gaji", "jumlah": "abc"}},
		{"zero amount", map[string]string{"tanggal": "2025-06-01", "tipe": "Pemasukan", "kategori": "Gaji", "jumlah": "0"}},
		{"bad date", map[string]string{"tanggal": "01/06/2025", "tipe": "Pemasukan", "kategori": "Gaji", "jumlah": "100"}},
		{"bad kind", map[string]string{"tanggal": "2025-06-01", "tipe": "Lainnya", "kategori": "Gaji", "jumlah": "100"}},
		{"empty category", map[string]string{"tanggal": "2025-06-01", "tipe": "Pemasukan", "kategori": "", "jumlah": "100"}},
		{"category too long", map[string]string{"tanggal": "2025-06-01", "tipe": "Pemasukan", "kategori": strings.Repeat("x", 101), "jumlah": "100"}},
		{"note too long", map[string]string{"tanggal": "2025-06-01", "tipe": "Pemasukan", "kategori": "Gaji", "jumlah": "100", "keterangan": strings.Repeat("x", 201)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, resp := doJSON(t, srv, http.MethodPost, "/api/transaksi", token, tc.body)
			if rec.Code != http.StatusUnprocessableEntity || resp.Success {
				t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSavingsFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv)

	// No income yet: nothing available to deposit.
	rec, resp := doJSON(t, srv, http.MethodPost, "/api/tabungan/kelola", token, map[string]string{
		"aksi": "tambah", "jumlah": "100000",
	})
	if rec.Code != http.StatusOK || resp.Success {
		t.Fatalf("deposit without funds must fail softly: status=%d body=%s", rec.Code, rec.Body.String())
	}

	doJSON(t, srv, http.MethodPost, "/api/transaksi", token, map[string]string{
		"tanggal": "2025-06-01", "tipe": "Pemasukan", "kategori": "Gaji", "jumlah": "500000",
	})

	rec, resp = doJSON(t, srv, http.MethodPost, "/api/tabungan/kelola", token, map[string]string{
		"aksi": "tambah", "jumlah": "200000",
	})
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("deposit: status=%d body=%s", rec.Code, rec.Body.String())
	}
	data := resp.Data.(map[string]any)
	if data["tabungan_cents"].(float64) != 20000000 {
		t.Errorf("tabungan after deposit = %v", data["tabungan_cents"])
	}

	rec, resp = doJSON(t, srv, http.MethodPost, "/api/tabungan/kelola", token, map[string]string{
		"aksi": "ambil", "jumlah": "300000",
	})
	if rec.Code != http.StatusOK || resp.Success {
		t.Fatalf("overdrawing withdraw must fail softly: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec, resp = doJSON(t, srv, http.MethodGet, "/api/tabungan", token, nil)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("tabungan: status=%d", rec.Code)
	}
	data = resp.Data.(map[string]any)
	if data["tabungan_cents"].(float64) != 20000000 {
		t.Errorf("tabungan = %v, want unchanged", data["tabungan_cents"])
	}
}

func TestLedgerOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv)

	doJSON(t, srv, http.MethodPost, "/api/transaksi", token, map[string]string{
		"tanggal": "2025-06-01", "tipe": "Pemasukan", "kategori": "Gaji", "jumlah": "2000",
	})
	doJSON(t, srv, http.MethodPost, "/api/transaksi", token, map[string]string{
		"tanggal": "2025-06-02", "tipe": "Pengeluaran", "kategori": "Makan", "jumlah": "500",
	})

	rec, resp := doJSON(t, srv, http.MethodGet, "/api/buku-besar", token, nil)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("buku besar: status=%d body=%s", rec.Code, rec.Body.String())
	}
	data := resp.Data.(map[string]any)
	entries := data["entri"].([]any)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	first := entries[0].(map[string]any)
	if first["tanggal"] != "2025-06-01" {
		t.Errorf("oldest entry first, got %v", first["tanggal"])
	}
	if data["saldo_akhir_cents"].(float64) != 150000 {
		t.Errorf("saldo akhir = %v", data["saldo_akhir_cents"])
	}

	rec, _ = doJSON(t, srv, http.MethodGet, "/api/buku-besar?tanggal_mulai=bad-date", token, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad date filter: status=%d, want 422", rec.Code)
	}
}

func TestResetDataOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv)

	doJSON(t, srv, http.MethodPost, "/api/transaksi", token, map[string]string{
		"tanggal": "2025-06-01", "tipe": "Pemasukan", "kategori": "Gaji", "jumlah": "1000",
	})

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/profil/reset-data", token, map[string]string{
		"password": "salah",
	})
	if rec.Code != http.StatusOK || resp.Success {
		t.Fatalf("wrong password must fail softly: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec, resp = doJSON(t, srv, http.MethodPost, "/api/profil/reset-data", token, map[string]string{
		"password": "rahasia123",
	})
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("reset: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec, resp = doJSON(t, srv, http.MethodGet, "/api/riwayat", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("riwayat after reset: status=%d", rec.Code)
	}
	items := resp.Data.([]any)
	if len(items) != 0 {
		t.Fatalf("riwayat after reset: %d items, want 0", len(items))
	}
}

func TestProfileUpdateOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv)

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/profil/update", token, map[string]string{
		"nama_lengkap":  "Budi Santoso",
		"tanggal_lahir": "1992-08-17",
	})
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("update profile: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec, resp = doJSON(t, srv, http.MethodGet, "/api/profil", token, nil)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("profil: status=%d", rec.Code)
	}
	data := resp.Data.(map[string]any)
	if data["nama_lengkap"] != "Budi Santoso" {
		t.Errorf("nama_lengkap = %v", data["nama_lengkap"])
	}
}

func TestSummaryCacheInvalidatedByTransaction(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv)

	// Prime the cache.
	rec, resp := doJSON(t, srv, http.MethodGet, "/api/summary", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: status=%d", rec.Code)
	}
	if resp.Data.(map[string]any)["pemasukan_cents"].(float64) != 0 {
		t.Fatal("fresh account should have zero income")
	}

	doJSON(t, srv, http.MethodPost, "/api/transaksi", token, map[string]string{
		"tanggal": "2025-06-01", "tipe": "Pemasukan", "kategori": "Gaji", "jumlah": "1000",
	})

	rec, resp = doJSON(t, srv, http.MethodGet, "/api/summary", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: status=%d", rec.Code)
	}
	if got := resp.Data.(map[string]any)["pemasukan_cents"].(float64); got != 100000 {
		t.Fatalf("summary served stale data after mutation: pemasukan = %v", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv)

	rec, _ := doJSON(t, srv, http.MethodGet, "/api/transaksi", token, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /api/transaksi: status=%d, want 405", rec.Code)
	}
}
