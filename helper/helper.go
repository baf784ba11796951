package helper

import (
	"gonum.org/v1/gonum/floats"
)

// CosineSimilarity menghitung kemiripan dua vektor wajah.
// Hasil 1.0 = identik, 0.0 = tidak mirip sama sekali.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0
	}

	return floats.Dot(a, b) / (normA * normB)
}

// CosineDistance mengubah similarity menjadi jarak (makin kecil makin mirip),
// dipakai Recognition Index untuk mencari kandidat terbaik.
func CosineDistance(a, b []float64) float64 {
	return 1 - CosineSimilarity(a, b)
}
