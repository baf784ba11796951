package absen

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"SIPRESMA/faceindex"
	"SIPRESMA/faceproc"
	"SIPRESMA/ledger"
	"SIPRESMA/models"
	"SIPRESMA/recognition"
)

type Controller struct {
	Svc    *recognition.Service
	Ledger *ledger.Ledger
}

func NewController(svc *recognition.Service, lg *ledger.Ledger) *Controller {
	return &Controller{Svc: svc, Ledger: lg}
}

// Payload scan absensi: cukup foto, identitas diambil dari sesi login.
type ScanPayload struct {
	Image string `json:"image" binding:"required"`
}

// Payload mode identifikasi (kios): NIM boleh kosong -> cari se-index (1:N).
type IdentifyPayload struct {
	Image string `json:"image" binding:"required"`
	Nim   string `json:"nim"`
}

// ScanAbsensiHandler memverifikasi wajah user yang login (mode 1:1) dan
// mencatat kehadiran hari ini kalau diterima.
func (ct *Controller) ScanAbsensiHandler(c *gin.Context) {
	// 1. Bind JSON dari client
	var payload ScanPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input tidak valid: " + err.Error()})
		return
	}

	// 2. Ambil data user login
	userData, _ := c.Get("currentUser")
	currentUser := userData.(models.Mahasiswa)

	ct.verifyAndMark(c, payload.Image, currentUser.Nim)
}

// IdentifyHandler dipakai perangkat kios: kalau NIM dikirim jadi verifikasi
// 1:1, kalau kosong jadi identifikasi 1:N terhadap seluruh index.
func (ct *Controller) IdentifyHandler(c *gin.Context) {
	var payload IdentifyPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input tidak valid: " + err.Error()})
		return
	}

	ct.verifyAndMark(c, payload.Image, payload.Nim)
}

func (ct *Controller) verifyAndMark(c *gin.Context, image string, claimedNim string) {
	// 1. Jalankan pipeline verifikasi
	result, err := ct.Svc.Verify(image, claimedNim)
	if err != nil {
		status, message := verifyErrorResponse(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	// 2. Putusan akhir wajah
	if result.State != recognition.StateAccepted {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": fmt.Sprintf("Wajah tidak dikenali! (Jarak: %.3f - Batas: %.3f)",
				result.Distance, ct.Svc.Threshold()),
			"distance": result.Distance,
		})
		return
	}

	// 3. Catat kehadiran. HANYA dipanggil saat verifikasi diterima.
	now := time.Now()
	outcome, err := ct.Ledger.MarkPresent(result.Identity, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Gagal menyimpan absensi"})
		return
	}

	if outcome == ledger.AlreadyRecordedToday {
		c.JSON(http.StatusConflict, gin.H{
			"message":  "Anda sudah tercatat hadir hari ini",
			"nim":      result.Identity,
			"distance": result.Distance,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Absensi BERHASIL jam " + now.Format("15:04:05"),
		"nim":      result.Identity,
		"distance": result.Distance,
	})
}

// GetAllAbsen mengembalikan seluruh isi ledger.
func (ct *Controller) GetAllAbsen(c *gin.Context) {
	records, err := ct.Ledger.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Gagal membaca data absensi"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"absensi": records})
}

// GetHistoryUser mengembalikan riwayat absensi user yang sedang login.
func (ct *Controller) GetHistoryUser(c *gin.Context) {
	userData, exists := c.Get("currentUser")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Sesi pengguna tidak valid"})
		return
	}
	currentUser := userData.(models.Mahasiswa)

	history, err := ct.Ledger.ListByIdentity(currentUser.Nim)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Gagal mengambil riwayat absensi"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func verifyErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, faceproc.ErrDecode):
		return http.StatusBadRequest, "Gambar tidak bisa dibaca. Kirim ulang foto yang valid."
	case errors.Is(err, faceproc.ErrNoFaceDetected):
		return http.StatusBadRequest, "Tidak ada wajah terdeteksi. Pastikan wajah menghadap kamera."
	case errors.Is(err, faceproc.ErrAmbiguousFaceCount):
		return http.StatusBadRequest, "Terdeteksi lebih dari satu wajah. Pastikan hanya ada satu orang."
	case errors.Is(err, recognition.ErrUnknownIdentity):
		return http.StatusNotFound, "Wajah Anda belum didaftarkan. Silakan daftar wajah dulu."
	case errors.Is(err, faceindex.ErrNoIndex):
		return http.StatusNotFound, "Belum ada wajah terdaftar di sistem."
	default:
		return http.StatusInternalServerError, "Terjadi masalah pada server"
	}
}
