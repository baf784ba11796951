// Package recognition mengorkestrasi pipeline registrasi & verifikasi:
// gambar -> descriptor -> store/index -> keputusan threshold.
package recognition

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"SIPRESMA/faceindex"
	"SIPRESMA/faceproc"
	"SIPRESMA/facestore"
)

// DefaultThreshold = batas jarak cosine untuk menerima kecocokan.
// Setara similarity minimal 0.80. Sengaja lebih ketat daripada perlu,
// karena salah terima (false accept) jauh lebih berbahaya daripada
// salah tolak untuk absensi.
const DefaultThreshold = 0.20

// ErrUnknownIdentity = identitas yang diklaim belum pernah registrasi wajah.
// Dibedakan dari skor rendah supaya caller bisa kasih pesan yang benar
// ("belum daftar" vs "wajah tidak cocok").
var ErrUnknownIdentity = errors.New("identity has no enrolled face")

// State akhir satu permintaan verifikasi.
// Alur internalnya linear: Detecting -> Matching -> Deciding -> state akhir.
type State string

const (
	StateAccepted State = "accepted"
	StateRejected State = "rejected"
	StateErrored  State = "errored"
)

// Result membawa keputusan plus skor jarak untuk diagnosa.
// Distance makin kecil makin mirip; ini BUKAN probabilitas.
type Result struct {
	State    State
	Identity string  // identitas terbaik dari index (kosong kalau Errored)
	Distance float64 // jarak cosine hasil match
}

// Service memegang store + snapshot index aktif.
//
// Kebijakan concurrency (copy-on-rebuild):
//   - index dipublikasikan lewat atomic pointer; Verify yang sedang jalan
//     terus memakai snapshot yang dia ambil, tidak pernah lihat index
//     setengah jadi;
//   - registrasi (tulis store + rebuild + swap) diserialisasi satu mutex,
//     termasuk registrasi ulang identitas yang sama.
type Service struct {
	detector  faceproc.Detector
	store     *facestore.Store
	threshold float64

	enrollMu sync.Mutex
	index    atomic.Pointer[faceindex.Index]
}

// New membangun service dan langsung rebuild index dari isi store,
// supaya wajah yang terdaftar sebelum restart tetap dikenali.
func New(detector faceproc.Detector, store *facestore.Store, threshold float64) (*Service, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	s := &Service{
		detector:  detector,
		store:     store,
		threshold: threshold,
	}
	if err := s.rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

// Register mendaftarkan wajah untuk satu identitas.
// Urutannya penting: simpan ke store dulu, lalu rebuild index secara
// SINKRON sebelum registrasi di-ack. Verifikasi sesaat setelah Register
// sukses dijamin sudah melihat identitas baru.
func (s *Service) Register(identity string, imageBase64 string) error {
	img, err := faceproc.DecodeBase64Image(imageBase64)
	if err != nil {
		return err
	}

	face, err := faceproc.Extract(s.detector, img)
	if err != nil {
		return err
	}

	s.enrollMu.Lock()
	defer s.enrollMu.Unlock()

	if err := s.store.Enroll(identity, face); err != nil {
		return err
	}
	return s.rebuild()
}

// Verify menjalankan state machine verifikasi terhadap snapshot index aktif.
//
// claimedIdentity != "" = mode verifikasi 1:1: hasil match terbaik harus
// SAMA dengan identitas yang diklaim; jarak kecil ke identitas lain tetap
// ditolak. claimedIdentity == "" = mode identifikasi 1:N.
//
// Keputusan: distance < threshold -> Accepted. Tepat di threshold ditolak.
func (s *Service) Verify(imageBase64 string, claimedIdentity string) (Result, error) {
	errored := Result{State: StateErrored}

	// Detecting
	img, err := faceproc.DecodeBase64Image(imageBase64)
	if err != nil {
		return errored, err
	}
	face, err := faceproc.Extract(s.detector, img)
	if err != nil {
		return errored, err
	}

	// Matching
	if claimedIdentity != "" && !s.store.Has(claimedIdentity) {
		return errored, fmt.Errorf("%w: %s", ErrUnknownIdentity, claimedIdentity)
	}

	query := faceproc.Descriptor(face)
	identity, distance, err := s.index.Load().Match(query)
	if err != nil {
		return errored, err
	}

	// Deciding
	result := Result{Identity: identity, Distance: distance}
	if distance < s.threshold && (claimedIdentity == "" || identity == claimedIdentity) {
		result.State = StateAccepted
	} else {
		result.State = StateRejected
	}
	return result, nil
}

// Enrolled mengecek apakah identitas sudah punya wajah terdaftar.
func (s *Service) Enrolled(identity string) bool {
	return s.store.Has(identity)
}

// EnrolledCount = jumlah identitas di index aktif.
func (s *Service) EnrolledCount() int {
	return s.index.Load().Size()
}

// Threshold mengembalikan batas keputusan yang sedang dipakai.
func (s *Service) Threshold() float64 {
	return s.threshold
}

func (s *Service) rebuild() error {
	entries, err := s.store.List()
	if err != nil {
		return fmt.Errorf("enumerasi store: %w", err)
	}
	ix, err := faceindex.Rebuild(entries)
	if err != nil {
		return err
	}
	s.index.Store(ix)
	return nil
}
