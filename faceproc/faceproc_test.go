package faceproc

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

// stubDetector mengembalikan daftar kotak yang sudah ditentukan,
// supaya test pipeline tidak perlu OpenCV.
type stubDetector struct {
	regions []image.Rectangle
	err     error
}

func (d *stubDetector) DetectRegions(img *image.Gray) ([]image.Rectangle, error) {
	return d.regions, d.err
}

func makeTestImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x * 7) % 256)})
		}
	}
	return img
}

func toBase64PNG(t *testing.T, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeBase64Image(t *testing.T) {
	img := makeTestImage(32, 32)
	encoded := toBase64PNG(t, img)

	t.Run("tanpa prefix", func(t *testing.T) {
		if _, err := DecodeBase64Image(encoded); err != nil {
			t.Fatalf("decode gagal: %v", err)
		}
	})

	t.Run("dengan prefix data-url", func(t *testing.T) {
		if _, err := DecodeBase64Image("data:image/png;base64," + encoded); err != nil {
			t.Fatalf("decode gagal: %v", err)
		}
	})

	t.Run("base64 rusak", func(t *testing.T) {
		_, err := DecodeBase64Image("!!!bukan-base64!!!")
		if !errors.Is(err, ErrDecode) {
			t.Fatalf("harus ErrDecode, dapat %v", err)
		}
	})

	t.Run("bukan gambar", func(t *testing.T) {
		junk := base64.StdEncoding.EncodeToString([]byte("halo dunia"))
		_, err := DecodeBase64Image(junk)
		if !errors.Is(err, ErrDecode) {
			t.Fatalf("harus ErrDecode, dapat %v", err)
		}
	})
}

func TestExtract(t *testing.T) {
	img := makeTestImage(300, 300)
	region := image.Rect(40, 40, 220, 220)

	t.Run("tepat satu wajah", func(t *testing.T) {
		det := &stubDetector{regions: []image.Rectangle{region}}
		face, err := Extract(det, img)
		if err != nil {
			t.Fatalf("Extract gagal: %v", err)
		}
		bounds := face.Bounds()
		if bounds.Dx() != FaceSize || bounds.Dy() != FaceSize {
			t.Errorf("ukuran crop %dx%d, harus %dx%d", bounds.Dx(), bounds.Dy(), FaceSize, FaceSize)
		}
	})

	t.Run("nol wajah", func(t *testing.T) {
		det := &stubDetector{}
		if _, err := Extract(det, img); !errors.Is(err, ErrNoFaceDetected) {
			t.Fatalf("harus ErrNoFaceDetected, dapat %v", err)
		}
	})

	t.Run("dua wajah", func(t *testing.T) {
		det := &stubDetector{regions: []image.Rectangle{region, image.Rect(0, 0, 50, 50)}}
		if _, err := Extract(det, img); !errors.Is(err, ErrAmbiguousFaceCount) {
			t.Fatalf("harus ErrAmbiguousFaceCount, dapat %v", err)
		}
	})

	t.Run("detector error diteruskan", func(t *testing.T) {
		det := &stubDetector{err: errors.New("kamera rusak")}
		if _, err := Extract(det, img); err == nil {
			t.Fatal("error detector harus diteruskan")
		}
	})
}

func TestDescriptor(t *testing.T) {
	face := makeTestImage(FaceSize, FaceSize)

	vec := Descriptor(face)
	if len(vec) != FaceSize*FaceSize {
		t.Fatalf("dimensi descriptor %d, harus %d", len(vec), FaceSize*FaceSize)
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if math.Abs(norm-1) > 1e-9 {
		t.Errorf("descriptor harus ternormalisasi (norm=1), dapat %v", norm)
	}

	// Descriptor harus deterministik untuk input yang sama.
	again := Descriptor(face)
	for i := range vec {
		if vec[i] != again[i] {
			t.Fatalf("descriptor tidak deterministik di elemen %d", i)
		}
	}
}

func TestDescriptorZeroImage(t *testing.T) {
	// Gambar hitam total: norm nol, tidak boleh NaN.
	face := image.NewGray(image.Rect(0, 0, FaceSize, FaceSize))
	vec := Descriptor(face)
	for i, v := range vec {
		if math.IsNaN(v) {
			t.Fatalf("elemen %d NaN", i)
		}
	}
}

func TestToGray(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			rgba.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}

	gray := ToGray(rgba)
	if got := gray.GrayAt(2, 2).Y; got < 254 {
		t.Errorf("piksel putih harus tetap terang, dapat %d", got)
	}

	// Gambar yang sudah grayscale dikembalikan apa adanya.
	g := image.NewGray(image.Rect(0, 0, 2, 2))
	if ToGray(g) != g {
		t.Error("ToGray harus mengembalikan *image.Gray yang sama")
	}
}
