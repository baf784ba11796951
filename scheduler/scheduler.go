// Package scheduler menjalankan job harian penanda Absent: setiap
// mahasiswa di roster yang belum punya catatan kehadiran hari itu
// diberi baris "Absent" di ledger.
package scheduler

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"SIPRESMA/ledger"
	"SIPRESMA/models"
)

// Start menjadwalkan job di jam markTime ("15:04") setiap hari.
func Start(lg *ledger.Ledger, markTime string) (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(time.Local)

	_, err := s.Every(1).Day().At(markTime).Do(func() {
		if err := MarkAbsentees(lg, time.Now()); err != nil {
			log.Printf("Job absen harian gagal: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("menjadwalkan job absen harian: %w", err)
	}

	s.StartAsync()
	log.Printf("Job penanda Absent aktif setiap hari jam %s", markTime)
	return s, nil
}

// MarkAbsentees menulis baris Absent untuk mahasiswa tanpa catatan hari ini.
// Invariant sekali-per-hari dijaga oleh ledger, jadi job ini aman diulang.
func MarkAbsentees(lg *ledger.Ledger, when time.Time) error {
	var students []models.Mahasiswa
	if err := models.DB.Find(&students).Error; err != nil {
		return fmt.Errorf("membaca roster: %w", err)
	}

	marked := 0
	for _, student := range students {
		outcome, err := lg.MarkAbsent(student.Nim, when)
		if err != nil {
			return fmt.Errorf("menandai %s: %w", student.Nim, err)
		}
		if outcome == ledger.Recorded {
			marked++
		}
	}

	log.Printf("Job absen harian selesai: %d dari %d mahasiswa ditandai Absent", marked, len(students))
	return nil
}
