package faceproc

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/floats"
)

// FaceSize adalah ukuran kanonik hasil crop wajah (piksel).
// Semua descriptor di index harus punya dimensi FaceSize*FaceSize.
const FaceSize = 200

var (
	// ErrDecode = data gambar dari client rusak / bukan format yang didukung.
	ErrDecode = errors.New("invalid image data")

	// ErrNoFaceDetected = tidak ada wajah di dalam gambar.
	ErrNoFaceDetected = errors.New("no face detected")

	// ErrAmbiguousFaceCount = lebih dari satu wajah terdeteksi.
	// Untuk registrasi maupun verifikasi kita TIDAK pernah menebak
	// "ambil wajah pertama": harus tepat satu wajah.
	ErrAmbiguousFaceCount = errors.New("more than one face detected")
)

// Detector mendeteksi area wajah pada gambar grayscale.
// Implementasi produksi ada di faceproc/haar (OpenCV Haar Cascade).
type Detector interface {
	DetectRegions(img *image.Gray) ([]image.Rectangle, error)
}

// DecodeBase64Image menerima string base64 dari client (boleh dengan prefix
// "data:image/jpeg;base64,") dan mengembalikan gambar raster.
func DecodeBase64Image(data string) (image.Image, error) {
	if idx := strings.Index(data, "base64,"); idx >= 0 {
		data = data[idx+len("base64,"):]
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// Extract mencari TEPAT SATU wajah di dalam gambar lalu mengembalikan
// crop grayscale ukuran kanonik FaceSize x FaceSize.
// Nol wajah -> ErrNoFaceDetected, lebih dari satu -> ErrAmbiguousFaceCount.
func Extract(det Detector, img image.Image) (*image.Gray, error) {
	gray := ToGray(img)

	regions, err := det.DetectRegions(gray)
	if err != nil {
		return nil, fmt.Errorf("face detector: %w", err)
	}

	switch len(regions) {
	case 0:
		return nil, ErrNoFaceDetected
	case 1:
		// lanjut crop
	default:
		return nil, ErrAmbiguousFaceCount
	}

	region := regions[0].Intersect(gray.Bounds())
	if region.Empty() {
		return nil, ErrNoFaceDetected
	}

	face := gray.SubImage(region)
	return resizeGray(face, FaceSize, FaceSize), nil
}

// Descriptor meratakan crop wajah menjadi vektor float64 ternormalisasi
// (panjang vektor = 1) supaya jarak cosine antar wajah bisa dibandingkan.
func Descriptor(face *image.Gray) []float64 {
	bounds := face.Bounds()
	vec := make([]float64, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			vec = append(vec, float64(face.GrayAt(x, y).Y)/255.0)
		}
	}

	if norm := floats.Norm(vec, 2); norm > 0 {
		floats.Scale(1/norm, vec)
	}
	return vec
}

// ToGray mengubah gambar warna apapun menjadi grayscale 8-bit.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}

	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// Bobot luminance standar (ITU-R BT.601).
			lum := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			gray.SetGray(x, y, color.Gray{Y: uint8(lum + 0.5)})
		}
	}
	return gray
}

// EncodeJPEG dipakai untuk menyimpan crop wajah sebagai artifact.
func EncodeJPEG(face *image.Gray) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, face, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func resizeGray(src image.Image, width, height int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
