package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"SIPRESMA/config"
	"SIPRESMA/controllers/absen"
	"SIPRESMA/controllers/auth"
	"SIPRESMA/controllers/face"
	"SIPRESMA/faceproc/haar"
	"SIPRESMA/facestore"
	"SIPRESMA/ledger"
	"SIPRESMA/middlewares"
	"SIPRESMA/models"
	"SIPRESMA/recognition"
	"SIPRESMA/scheduler"
)

func main() {
	cfg := config.Load()
	models.ConnectDatabase()

	// Detector wajah (OpenCV Haar Cascade)
	detector, err := haar.New(cfg.CascadePath)
	if err != nil {
		log.Fatalf("Gagal inisialisasi detector wajah: %v", err)
	}
	defer detector.Close()

	// Store wajah referensi + ledger absensi
	store, err := facestore.Open(cfg.FaceDataDir)
	if err != nil {
		log.Fatalf("Gagal membuka store wajah: %v", err)
	}
	attendance, err := ledger.Open(cfg.AttendanceFile)
	if err != nil {
		log.Fatalf("Gagal membuka ledger absensi: %v", err)
	}

	// Service pipeline: rebuild index dari store saat start
	svc, err := recognition.New(detector, store, cfg.FaceThreshold)
	if err != nil {
		log.Fatalf("Gagal membangun index wajah: %v", err)
	}
	log.Printf("Index wajah siap: %d identitas, threshold %.3f", svc.EnrolledCount(), svc.Threshold())

	// Job harian penanda Absent
	if _, err := scheduler.Start(attendance, cfg.AbsentMarkTime); err != nil {
		log.Fatalf("Gagal menjalankan scheduler: %v", err)
	}

	faceController := face.NewController(svc)
	absenController := absen.NewController(svc, attendance)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"message":   "Face verification service is running",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	r.POST("/login", auth.LoginHandler)
	r.GET("/absen", absenController.GetAllAbsen)

	protected := r.Group("/")
	protected.Use(middlewares.AuthMiddleware())
	{
		protected.POST("/face/register", faceController.RegisterFaceHandler)
		protected.GET("/face/status", faceController.CheckFaceStatusHandler)
		protected.POST("/absen/scan", absenController.ScanAbsensiHandler)
		protected.POST("/absen/identify", absenController.IdentifyHandler)
		protected.GET("/absen/riwayat", absenController.GetHistoryUser)
	}

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server berhenti: %v", err)
	}
}
