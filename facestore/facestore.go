// Package facestore menyimpan wajah referensi hasil registrasi.
// Satu identitas = satu artifact gambar kanonik. Pemetaan identitas ->
// artifact disimpan eksplisit di manifest.json, TIDAK pernah ditebak
// dari nama file.
package facestore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"SIPRESMA/faceproc"
)

const manifestName = "manifest.json"

// Entry adalah satu wajah terdaftar: identitas + descriptor siap banding.
type Entry struct {
	Identity   string
	Descriptor []float64
}

type manifestEntry struct {
	File         string    `json:"file"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Store menyimpan artifact wajah di satu direktori data.
type Store struct {
	mu       sync.Mutex
	dir      string
	manifest map[string]manifestEntry
}

// Open menyiapkan direktori data dan memuat manifest yang sudah ada.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("menyiapkan direktori wajah: %w", err)
	}

	s := &Store{
		dir:      dir,
		manifest: make(map[string]manifestEntry),
	}

	raw, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("membaca manifest: %w", err)
	}
	if err := json.Unmarshal(raw, &s.manifest); err != nil {
		return nil, fmt.Errorf("manifest rusak: %w", err)
	}
	return s, nil
}

// Enroll menyimpan wajah referensi untuk satu identitas.
// Registrasi ulang MENIMPA referensi lama (bukan menambah sampel baru):
// artifact baru ditulis dulu lewat temp file + rename, manifest di-switch,
// baru artifact lama dihapus. Pembaca tidak pernah melihat artifact
// setengah jadi sebagai referensi aktif.
func (s *Store) Enroll(identity string, face *image.Gray) error {
	if identity == "" {
		return fmt.Errorf("identitas kosong")
	}

	data, err := faceproc.EncodeJPEG(face)
	if err != nil {
		return fmt.Errorf("encode wajah: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fileName := fmt.Sprintf("face-%d.jpg", time.Now().UnixNano())
	if err := s.writeAtomic(fileName, data); err != nil {
		return fmt.Errorf("menyimpan wajah: %w", err)
	}

	old, replacing := s.manifest[identity]
	s.manifest[identity] = manifestEntry{File: fileName, RegisteredAt: time.Now()}
	if err := s.writeManifest(); err != nil {
		// rollback supaya manifest di memory tetap konsisten dengan disk
		if replacing {
			s.manifest[identity] = old
		} else {
			delete(s.manifest, identity)
		}
		return fmt.Errorf("menyimpan manifest: %w", err)
	}

	if replacing && old.File != fileName {
		_ = os.Remove(filepath.Join(s.dir, old.File))
	}
	return nil
}

// List memuat semua wajah terdaftar, urut berdasarkan identitas.
// Urutan yang stabil ini yang dipakai faceindex saat memberi label,
// jadi satu kali rebuild selalu konsisten.
func (s *Store) List() ([]Entry, error) {
	s.mu.Lock()
	identities := make([]string, 0, len(s.manifest))
	files := make(map[string]string, len(s.manifest))
	for id, entry := range s.manifest {
		identities = append(identities, id)
		files[id] = entry.File
	}
	s.mu.Unlock()

	sort.Strings(identities)

	entries := make([]Entry, 0, len(identities))
	for _, id := range identities {
		face, err := s.loadFace(files[id])
		if err != nil {
			return nil, fmt.Errorf("memuat wajah %q: %w", id, err)
		}
		entries = append(entries, Entry{Identity: id, Descriptor: faceproc.Descriptor(face)})
	}
	return entries, nil
}

// Has mengecek apakah identitas sudah punya wajah terdaftar.
func (s *Store) Has(identity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.manifest[identity]
	return ok
}

// Count mengembalikan jumlah identitas terdaftar.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.manifest)
}

func (s *Store) loadFace(fileName string) (*image.Gray, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, fileName))
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return faceproc.ToGray(img), nil
}

func (s *Store) writeManifest() error {
	data, err := json.MarshalIndent(s.manifest, "", "  ")
	if err != nil {
		return err
	}
	return s.writeAtomic(manifestName, data)
}

// writeAtomic menulis ke temp file lalu rename, supaya file tujuan
// tidak pernah terlihat setengah tertulis.
func (s *Store) writeAtomic(fileName string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, "tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, fileName)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
