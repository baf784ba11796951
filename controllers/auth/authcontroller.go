package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"SIPRESMA/config"
	"SIPRESMA/models"
)

type LoginPayload struct {
	Nim      string `json:"nim" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginHandler memvalidasi NIM + password lalu menerbitkan JWT 24 jam.
func LoginHandler(c *gin.Context) {
	// 1. Validasi input JSON
	var payload LoginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input tidak valid: " + err.Error()})
		return
	}

	// 2. Cari mahasiswa di roster
	var mahasiswa models.Mahasiswa
	if err := models.DB.Where("nim = ?", payload.Nim).First(&mahasiswa).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "NIM atau password salah"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Gagal memeriksa akun"})
		return
	}

	// 3. Cocokkan password dengan hash bcrypt
	if err := bcrypt.CompareHashAndPassword([]byte(mahasiswa.PasswordHash), []byte(payload.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "NIM atau password salah"})
		return
	}

	// 4. Terbitkan token
	claims := config.JWTClaims{
		Nim: mahasiswa.Nim,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(config.JWT_KEY)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Gagal membuat token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": signed,
		"nim":   mahasiswa.Nim,
		"nama":  mahasiswa.Nama,
	})
}
