package models

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDatabase() {
	// 1. Coba load file .env (khusus lokal). Di server produksi file ini
	// tidak ada, jadi error-nya sengaja diabaikan.
	_ = godotenv.Load()

	// 2. Ambil DSN dari System Environment
	dbURL := os.Getenv("DATABASE_URL")

	// 3. Kalau variabelnya kosong, baru boleh mati di sini.
	if dbURL == "" {
		log.Fatal("FATAL ERROR: Variable DATABASE_URL tidak ditemukan!")
	}

	// 4. Konek ke Database
	db, err := gorm.Open(mysql.Open(dbURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("Gagal Terhubung ke Database: %v", err)
	}

	// 5. Sinkronkan tabel roster mahasiswa
	if err := db.AutoMigrate(&Mahasiswa{}); err != nil {
		log.Fatalf("Gagal migrasi tabel: %v", err)
	}

	log.Println("Koneksi Database Berhasil.")
	DB = db
}
