// Package faceindex membangun index pencocokan wajah dari isi facestore.
// Index adalah VALUE yang immutable: setiap registrasi menghasilkan index
// baru lewat Rebuild, tidak ada state recognizer global yang dilatih ulang
// di tempat. Ini yang bikin kebijakan copy-on-rebuild gampang: publisher
// tinggal swap pointer ke index baru.
package faceindex

import (
	"errors"
	"fmt"

	"SIPRESMA/facestore"
	"SIPRESMA/helper"
)

// ErrNoIndex = belum ada satupun wajah terdaftar, tidak ada yang bisa
// dibandingkan. Bukan crash, bukan label sembarangan.
var ErrNoIndex = errors.New("no enrolled faces to match against")

// Index menyimpan tabel label -> identitas (urutan enumerasi store)
// plus descriptor referensinya. Jangan dimutasi setelah Rebuild.
type Index struct {
	identities  []string    // label = posisi slice
	descriptors [][]float64 // sejajar dengan identities
	dim         int
}

// Rebuild membangun index baru dari SELURUH enumerasi store saat ini.
// Label integer diberikan sesuai urutan entries; entries kosong
// menghasilkan index kosong yang valid (Match -> ErrNoIndex).
func Rebuild(entries []facestore.Entry) (*Index, error) {
	ix := &Index{
		identities:  make([]string, 0, len(entries)),
		descriptors: make([][]float64, 0, len(entries)),
	}

	for _, entry := range entries {
		if ix.dim == 0 {
			ix.dim = len(entry.Descriptor)
		}
		if len(entry.Descriptor) != ix.dim {
			return nil, fmt.Errorf("dimensi descriptor %q tidak konsisten: %d != %d",
				entry.Identity, len(entry.Descriptor), ix.dim)
		}
		ix.identities = append(ix.identities, entry.Identity)
		ix.descriptors = append(ix.descriptors, entry.Descriptor)
	}
	return ix, nil
}

// Match membandingkan descriptor query dengan SEMUA referensi dan
// mengembalikan identitas dengan jarak cosine terkecil.
// Kalau ada jarak seri, label terkecil yang menang (perbandingan strict <),
// jadi hasilnya deterministik untuk urutan input yang sama.
func (ix *Index) Match(query []float64) (string, float64, error) {
	if ix == nil || len(ix.identities) == 0 {
		return "", 0, ErrNoIndex
	}
	if len(query) != ix.dim {
		return "", 0, fmt.Errorf("dimensi query %d, index butuh %d", len(query), ix.dim)
	}

	bestLabel := 0
	bestDist := helper.CosineDistance(query, ix.descriptors[0])
	for label := 1; label < len(ix.descriptors); label++ {
		if d := helper.CosineDistance(query, ix.descriptors[label]); d < bestDist {
			bestDist = d
			bestLabel = label
		}
	}
	return ix.identities[bestLabel], bestDist, nil
}

// Size = jumlah wajah di index.
func (ix *Index) Size() int {
	if ix == nil {
		return 0
	}
	return len(ix.identities)
}

// Identities mengembalikan salinan tabel label -> identitas (untuk test
// determinisme dan diagnosa).
func (ix *Index) Identities() []string {
	out := make([]string, len(ix.identities))
	copy(out, ix.identities)
	return out
}
