// Package haar membungkus Haar Cascade Classifier dari OpenCV (gocv)
// sebagai implementasi faceproc.Detector. Dipisah dari core supaya
// package lain (dan test-nya) tidak perlu link ke OpenCV.
package haar

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Parameter deteksi default. scaleFactor 1.1 + minNeighbors 5 cukup ketat
// untuk satu wajah frontal tanpa banyak false positive.
const (
	defaultScaleFactor  = 1.1
	defaultMinNeighbors = 5
	defaultMinFaceSize  = 30
)

type Detector struct {
	mu           sync.Mutex
	classifier   gocv.CascadeClassifier
	scaleFactor  float64
	minNeighbors int
}

// New memuat file cascade XML (haarcascade_frontalface_default.xml).
func New(cascadePath string) (*Detector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cascadePath) {
		classifier.Close()
		return nil, fmt.Errorf("gagal memuat cascade classifier dari %s", cascadePath)
	}

	return &Detector{
		classifier:   classifier,
		scaleFactor:  defaultScaleFactor,
		minNeighbors: defaultMinNeighbors,
	}, nil
}

// DetectRegions mengembalikan semua kotak wajah yang ditemukan.
// CascadeClassifier gocv tidak aman dipakai paralel, jadi diserialisasi.
func (d *Detector) DetectRegions(img *image.Gray) ([]image.Rectangle, error) {
	mat, err := gocv.ImageGrayToMatGray(img)
	if err != nil {
		return nil, fmt.Errorf("konversi gambar ke mat: %w", err)
	}
	defer mat.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	regions := d.classifier.DetectMultiScaleWithParams(
		mat,
		d.scaleFactor,
		d.minNeighbors,
		0,
		image.Pt(defaultMinFaceSize, defaultMinFaceSize),
		image.Pt(0, 0),
	)
	return regions, nil
}

// Close melepas resource classifier OpenCV.
func (d *Detector) Close() error {
	return d.classifier.Close()
}
