// Package ledger mencatat kehadiran ke file CSV append-only.
// Format baris mengikuti [identitas, tanggal, jam, status].
// Invariant: satu identitas maksimal satu baris per tanggal kalender.
package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Status kehadiran yang dicatat di ledger.
const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
)

// Outcome hasil pencatatan. AlreadyRecordedToday BUKAN error:
// itu jawaban valid yang diteruskan ke caller.
type Outcome int

const (
	Recorded Outcome = iota
	AlreadyRecordedToday
)

// Record adalah satu baris kehadiran. Tidak pernah diubah atau dihapus.
type Record struct {
	Identity string `json:"identity"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Status   string `json:"status"`
}

// Ledger menjaga file CSV plus set (identitas|tanggal) di memory.
// Set-nya dibangun ulang dari file saat Open, jadi cek duplikat tidak
// perlu scan file setiap tulis; file tetap jadi sumber kebenaran durable.
type Ledger struct {
	mu   sync.Mutex
	path string
	seen map[string]struct{}
}

// Open membaca ledger yang sudah ada (boleh belum ada) dan membangun
// set duplikat dari isinya.
func Open(path string) (*Ledger, error) {
	l := &Ledger{
		path: path,
		seen: make(map[string]struct{}),
	}

	records, err := l.readAll()
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		l.seen[dayKey(r.Identity, r.Date)] = struct{}{}
	}
	return l, nil
}

// MarkPresent mencatat kehadiran sekali per hari.
// Cek-lalu-append dijaga satu mutex: dua verifikasi bersamaan untuk
// identitas yang sama tidak mungkin dua-duanya melihat "belum absen".
func (l *Ledger) MarkPresent(identity string, when time.Time) (Outcome, error) {
	return l.mark(identity, when, StatusPresent)
}

// MarkAbsent dipakai job harian untuk menandai yang tidak hadir.
// Invariant sekali-per-hari tetap berlaku: kalau sudah ada baris
// (Present ataupun Absent) untuk tanggal itu, tidak ditulis lagi.
func (l *Ledger) MarkAbsent(identity string, when time.Time) (Outcome, error) {
	return l.mark(identity, when, StatusAbsent)
}

func (l *Ledger) mark(identity string, when time.Time, status string) (Outcome, error) {
	date := when.Format(dateLayout)
	key := dayKey(identity, date)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[key]; ok {
		return AlreadyRecordedToday, nil
	}

	row := []string{identity, date, when.Format(timeLayout), status}
	if err := l.append(row); err != nil {
		return 0, fmt.Errorf("menulis ledger: %w", err)
	}

	l.seen[key] = struct{}{}
	return Recorded, nil
}

// List mengembalikan seluruh isi ledger, urut sesuai file (kronologis).
func (l *Ledger) List() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readAll()
}

// ListByIdentity mengembalikan riwayat satu identitas saja.
func (l *Ledger) ListByIdentity(identity string) ([]Record, error) {
	all, err := l.List()
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0)
	for _, r := range all {
		if r.Identity == identity {
			out = append(out, r)
		}
	}
	return out, nil
}

// HasToday mengecek apakah identitas sudah tercatat untuk tanggal when.
func (l *Ledger) HasToday(identity string, when time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[dayKey(identity, when.Format(dateLayout))]
	return ok
}

func (l *Ledger) append(row []string) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (l *Ledger) readAll() ([]Record, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("membaca ledger: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing ledger: %w", err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		if len(row) < 4 {
			continue
		}
		records = append(records, Record{
			Identity: row[0],
			Date:     row[1],
			Time:     row[2],
			Status:   row[3],
		})
	}
	return records, nil
}

func dayKey(identity, date string) string {
	return identity + "|" + date
}
