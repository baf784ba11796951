package absen

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"SIPRESMA/facestore"
	"SIPRESMA/ledger"
	"SIPRESMA/models"
	"SIPRESMA/recognition"
)

type stubDetector struct {
	regions []image.Rectangle
}

func (d *stubDetector) DetectRegions(img *image.Gray) ([]image.Rectangle, error) {
	return d.regions, nil
}

var faceRegion = image.Rect(30, 30, 230, 230)

func facePhoto(t *testing.T, brightLeft bool) string {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, 260, 260))
	mid := (faceRegion.Min.X + faceRegion.Max.X) / 2
	for y := faceRegion.Min.Y; y < faceRegion.Max.Y; y++ {
		for x := faceRegion.Min.X; x < faceRegion.Max.X; x++ {
			bright := x < mid
			if !brightLeft {
				bright = !bright
			}
			if bright {
				img.SetGray(x, y, color.Gray{Y: 235})
			} else {
				img.SetGray(x, y, color.Gray{Y: 15})
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// newTestRouter merakit pipeline lengkap (store + index + ledger) dengan
// detector stub dan middleware auth palsu yang memasang currentUser.
func newTestRouter(t *testing.T, nim string) (*gin.Engine, *recognition.Service, *ledger.Ledger) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := facestore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("facestore.Open: %v", err)
	}
	svc, err := recognition.New(&stubDetector{regions: []image.Rectangle{faceRegion}}, store, recognition.DefaultThreshold)
	if err != nil {
		t.Fatalf("recognition.New: %v", err)
	}
	lg, err := ledger.Open(filepath.Join(t.TempDir(), "attendance.csv"))
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}

	ct := NewController(svc, lg)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("currentUser", models.Mahasiswa{Nim: nim, Nama: "Tester"})
		c.Next()
	})
	r.POST("/absen/scan", ct.ScanAbsensiHandler)
	r.GET("/absen", ct.GetAllAbsen)
	r.GET("/absen/riwayat", ct.GetHistoryUser)

	return r, svc, lg
}

func postScan(t *testing.T, r *gin.Engine, image string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]string{"image": image})
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/absen/scan", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestScanAcceptedMarksAttendanceOnce(t *testing.T) {
	r, svc, lg := newTestRouter(t, "carol")

	photo := facePhoto(t, true)
	if err := svc.Register("carol", photo); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Scan pertama: diterima, ledger bertambah tepat satu baris.
	w := postScan(t, r, photo)
	if w.Code != http.StatusCreated {
		t.Fatalf("scan pertama harus 201, dapat %d: %s", w.Code, w.Body.String())
	}
	records, err := lg.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Identity != "carol" || records[0].Status != ledger.StatusPresent {
		t.Fatalf("ledger harus berisi satu baris Present carol, dapat %+v", records)
	}

	// Scan kedua di hari yang sama: konflik, TIDAK menambah baris.
	w = postScan(t, r, photo)
	if w.Code != http.StatusConflict {
		t.Fatalf("scan kedua harus 409, dapat %d: %s", w.Code, w.Body.String())
	}
	records, err = lg.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("ledger tidak boleh bertambah, dapat %d baris", len(records))
	}
}

func TestScanRejectedFaceNeverTouchesLedger(t *testing.T) {
	r, svc, lg := newTestRouter(t, "carol")

	if err := svc.Register("carol", facePhoto(t, true)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Wajah orang lain: ditolak dan ledger tetap kosong.
	w := postScan(t, r, facePhoto(t, false))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wajah beda harus 401, dapat %d: %s", w.Code, w.Body.String())
	}
	records, err := lg.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Fatalf("ledger harus tetap kosong, dapat %d baris", len(records))
	}
}

func TestScanUnregisteredUser(t *testing.T) {
	r, _, _ := newTestRouter(t, "eve")

	w := postScan(t, r, facePhoto(t, true))
	if w.Code != http.StatusNotFound {
		t.Fatalf("user tanpa wajah terdaftar harus 404, dapat %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "belum didaftarkan") {
		t.Errorf("pesan harus menjelaskan wajah belum terdaftar: %s", w.Body.String())
	}
}

func TestScanInvalidPayload(t *testing.T) {
	r, _, _ := newTestRouter(t, "carol")

	req := httptest.NewRequest(http.MethodPost, "/absen/scan", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("payload tanpa image harus 400, dapat %d", w.Code)
	}
}

func TestHistoryOnlyOwnRecords(t *testing.T) {
	r, _, lg := newTestRouter(t, "carol")

	if _, err := lg.MarkPresent("carol", mustTime(t, "2025-03-10 09:00:00")); err != nil {
		t.Fatal(err)
	}
	if _, err := lg.MarkPresent("dave", mustTime(t, "2025-03-10 09:05:00")); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/absen/riwayat", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("riwayat harus 200, dapat %d", w.Code)
	}

	var resp struct {
		History []ledger.Record `json:"history"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.History) != 1 || resp.History[0].Identity != "carol" {
		t.Fatalf("riwayat carol salah: %+v", resp.History)
	}
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		t.Fatalf("parse waktu: %v", err)
	}
	return parsed
}
