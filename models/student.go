package models

import (
	"time"
)

// Mahasiswa adalah roster identitas yang boleh login dan registrasi wajah.
// Nim dipakai sebagai key stabil di facestore dan ledger.
type Mahasiswa struct {
	Nim          string    `gorm:"primaryKey;size:32" json:"nim"`
	Nama         string    `json:"nama"`
	PasswordHash string    `gorm:"column:password_hash" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Mahasiswa) TableName() string {
	return "mahasiswa"
}
