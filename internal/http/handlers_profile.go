package http

import (
	"net/http"

	"keuangan/internal/storage"
)

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	user, err := s.accounts.Profile(r.Context(), uid)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, toUserPayload(user))
}

type updateProfileRequest struct {
	NamaLengkap  string `json:"nama_lengkap"`
	TanggalLahir string `json:"tanggal_lahir"`
	JenisKelamin string `json:"jenis_kelamin"`
	NoTelepon    string `json:"no_telepon"`
	Alamat       string `json:"alamat"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "format permintaan tidak valid")
		return
	}

	err := s.accounts.UpdateProfile(r.Context(), uid, storage.ProfileParams{
		NamaLengkap:  sanitizeInput(req.NamaLengkap),
		TanggalLahir: sanitizeInput(req.TanggalLahir),
		JenisKelamin: sanitizeInput(req.JenisKelamin),
		NoTelepon:    sanitizeInput(req.NoTelepon),
		Alamat:       sanitizeInput(req.Alamat),
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondMessage(w, "profil berhasil diperbarui", nil)
}

type changePasswordRequest struct {
	PasswordLama       string `json:"password_lama"`
	PasswordBaru       string `json:"password_baru"`
	KonfirmasiPassword string `json:"konfirmasi_password"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "format permintaan tidak valid")
		return
	}

	err := s.accounts.ChangePassword(r.Context(), uid, req.PasswordLama, req.PasswordBaru, req.KonfirmasiPassword)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondMessage(w, "password berhasil diubah", nil)
}

func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	file, header, err := r.FormFile("foto")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file foto tidak ditemukan")
		return
	}
	defer file.Close()

	name, err := s.accounts.SavePhoto(r.Context(), uid, header.Filename, file)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondMessage(w, "foto profil berhasil diperbarui", map[string]string{"foto_profil": name})
}

type resetDataRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleResetData(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req resetDataRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "format permintaan tidak valid")
		return
	}

	if err := s.finance.ResetFinancialData(r.Context(), uid, req.Password); err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.invalidateUser(uid)
	respondMessage(w, "data keuangan berhasil direset", nil)
}
