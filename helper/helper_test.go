package helper

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{"identik", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"ortogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"berlawanan", []float64{1, 0}, []float64{-1, 0}, -1},
		{"vektor nol", []float64{0, 0}, []float64{1, 1}, 0},
		{"panjang beda", []float64{1, 2}, []float64{1, 2, 3}, 0},
		{"kosong", nil, nil, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CosineSimilarity(tc.a, tc.b)
			if math.Abs(got-tc.expected) > 1e-9 {
				t.Errorf("CosineSimilarity(%v, %v) = %v; want %v", tc.a, tc.b, got, tc.expected)
			}
		})
	}
}

func TestCosineSimilarityScaleInvariant(t *testing.T) {
	a := []float64{0.3, 0.5, 0.9}
	b := []float64{0.6, 1.0, 1.8} // a dikali 2

	if got := CosineSimilarity(a, b); math.Abs(got-1) > 1e-9 {
		t.Errorf("vektor searah harus similarity 1, dapat %v", got)
	}
}

func TestCosineDistance(t *testing.T) {
	a := []float64{1, 0}
	b := []float64{0, 1}

	if got := CosineDistance(a, a); math.Abs(got) > 1e-9 {
		t.Errorf("jarak ke diri sendiri harus 0, dapat %v", got)
	}
	if got := CosineDistance(a, b); math.Abs(got-1) > 1e-9 {
		t.Errorf("jarak vektor ortogonal harus 1, dapat %v", got)
	}
}
