package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/joho/godotenv"
)

// Variable global untuk key JWT agar bisa diakses di controller/middleware
var JWT_KEY []byte

// Struct untuk data yang disimpan di dalam Token
type JWTClaims struct {
	Nim string `json:"nim"`
	jwt.RegisteredClaims
}

// AppConfig menampung setelan pipeline wajah & server.
type AppConfig struct {
	Port           string
	AllowedOrigins []string

	// Batas jarak cosine untuk menerima kecocokan (makin kecil makin ketat).
	FaceThreshold float64
	// Direktori artifact wajah referensi.
	FaceDataDir string
	// File CSV ledger absensi.
	AttendanceFile string
	// Path file Haar Cascade XML OpenCV.
	CascadePath string
	// Jam job harian penanda Absent, format "15:04".
	AbsentMarkTime string
}

// Fungsi init berjalan otomatis saat aplikasi start
func init() {
	// 1. Coba load file .env (khusus local development).
	// Di server produksi file ini biasanya tidak ada, jadi error-nya diabaikan.
	err := godotenv.Load()
	if err != nil {
		log.Println("Info: File .env tidak ditemukan. Menggunakan System Environment Variable.")
	}

	// 2. Ambil key dari Environment
	key := os.Getenv("JWT_KEY")

	// 3. Jika key kosong, matikan aplikasi demi keamanan.
	if key == "" {
		log.Fatal("FATAL ERROR: JWT_KEY tidak ditemukan di environment variable!")
	}

	JWT_KEY = []byte(key)
}

// Load membaca setelan aplikasi dari environment dengan default yang aman.
func Load() *AppConfig {
	return &AppConfig{
		Port:           valueOrDefault("PORT", "8080"),
		AllowedOrigins: splitCSV(valueOrDefault("ALLOWED_ORIGINS", "*")),
		FaceThreshold:  floatOrDefault("FACE_THRESHOLD", 0.20),
		FaceDataDir:    valueOrDefault("FACE_DATA_DIR", "known_faces"),
		AttendanceFile: valueOrDefault("ATTENDANCE_FILE", "attendance.csv"),
		CascadePath:    valueOrDefault("FACE_CASCADE_PATH", "haarcascade_frontalface_default.xml"),
		AbsentMarkTime: valueOrDefault("ABSENT_MARK_TIME", "18:00"),
	}
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func floatOrDefault(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("Peringatan: nilai %s tidak valid (%q), pakai default %.2f", key, v, fallback)
		return fallback
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
