package face

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"SIPRESMA/faceproc"
	"SIPRESMA/models"
	"SIPRESMA/recognition"
)

// Struct untuk validasi input dari client
type RegisterFacePayload struct {
	Image string `json:"image" binding:"required"` // gambar base64 (boleh pakai prefix data:)
}

type Controller struct {
	Svc *recognition.Service
}

func NewController(svc *recognition.Service) *Controller {
	return &Controller{Svc: svc}
}

// RegisterFaceHandler mendaftarkan wajah untuk user yang sedang login.
// Registrasi ulang MENIMPA wajah referensi sebelumnya.
func (ct *Controller) RegisterFaceHandler(c *gin.Context) {
	// 1. Ambil data user yang sedang login (dari middleware JWT)
	userData, exists := c.Get("currentUser")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Sesi pengguna tidak valid"})
		return
	}
	currentUser := userData.(models.Mahasiswa)

	// 2. Validasi input JSON
	var payload RegisterFacePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Data wajah tidak valid: " + err.Error()})
		return
	}

	// 3. Jalankan pipeline registrasi (deteksi -> simpan -> rebuild index)
	if err := ct.Svc.Register(currentUser.Nim, payload.Image); err != nil {
		status, message := registerErrorResponse(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Wajah berhasil didaftarkan!"})
}

// CheckFaceStatusHandler mengecek apakah user sudah punya wajah terdaftar.
func (ct *Controller) CheckFaceStatusHandler(c *gin.Context) {
	userData, _ := c.Get("currentUser")
	currentUser := userData.(models.Mahasiswa)

	c.JSON(http.StatusOK, gin.H{
		"is_registered":  ct.Svc.Enrolled(currentUser.Nim),
		"total_enrolled": ct.Svc.EnrolledCount(),
	})
}

func registerErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, faceproc.ErrDecode):
		return http.StatusBadRequest, "Gambar tidak bisa dibaca. Kirim ulang foto yang valid."
	case errors.Is(err, faceproc.ErrNoFaceDetected):
		return http.StatusBadRequest, "Tidak ada wajah terdeteksi. Pastikan wajah menghadap kamera."
	case errors.Is(err, faceproc.ErrAmbiguousFaceCount):
		return http.StatusBadRequest, "Terdeteksi lebih dari satu wajah. Foto harus berisi satu wajah saja."
	default:
		return http.StatusInternalServerError, "Gagal menyimpan data wajah"
	}
}
