package middlewares

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"SIPRESMA/config"
	"SIPRESMA/models"
)

// AuthMiddleware memvalidasi Bearer token lalu menaruh data mahasiswa
// yang sedang login di context sebagai "currentUser".
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Ambil token dari header Authorization
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token tidak ditemukan"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		// 2. Parse & validasi signature
		claims := &config.JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("metode signing tidak dikenal: %v", t.Header["alg"])
			}
			return config.JWT_KEY, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Sesi tidak valid atau sudah kedaluwarsa"})
			return
		}

		// 3. Pastikan mahasiswanya masih ada di roster
		var mahasiswa models.Mahasiswa
		if err := models.DB.Where("nim = ?", claims.Nim).First(&mahasiswa).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Akun tidak ditemukan"})
			return
		}

		c.Set("currentUser", mahasiswa)
		c.Next()
	}
}
