package http

import (
	"net/http"

	"keuangan/internal/storage"
)

type registerRequest struct {
	Username           string `json:"username"`
	Email              string `json:"email"`
	Password           string `json:"password"`
	KonfirmasiPassword string `json:"konfirmasi_password"`
}

type loginRequest struct {
	Identitas string `json:"identitas"`
	Password  string `json:"password"`
}

type userPayload struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	NamaLengkap  string `json:"nama_lengkap,omitempty"`
	TanggalLahir string `json:"tanggal_lahir,omitempty"`
	JenisKelamin string `json:"jenis_kelamin,omitempty"`
	NoTelepon    string `json:"no_telepon,omitempty"`
	Alamat       string `json:"alamat,omitempty"`
	FotoProfil   string `json:"foto_profil,omitempty"`
}

func toUserPayload(u storage.User) userPayload {
	return userPayload{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		NamaLengkap:  u.NamaLengkap,
		TanggalLahir: u.TanggalLahir,
		JenisKelamin: u.JenisKelamin,
		NoTelepon:    u.NoTelepon,
		Alamat:       u.Alamat,
		FotoProfil:   u.FotoProfil,
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "format permintaan tidak valid")
		return
	}

	id, err := s.accounts.Register(r.Context(),
		sanitizeInput(req.Username), sanitizeInput(req.Email),
		req.Password, req.KonfirmasiPassword)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondMessage(w, "registrasi berhasil", map[string]int64{"user_id": id})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "format permintaan tidak valid")
		return
	}

	token, user, err := s.accounts.Login(r.Context(), sanitizeInput(req.Identitas), req.Password)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondMessage(w, "login berhasil", map[string]any{
		"token": token,
		"user":  toUserPayload(user),
	})
}
