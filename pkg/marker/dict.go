package marker

import (
	"math/rand"
	"sync"
)

// Matrix is an N×N payload grid. A true bit renders as a white cell, a
// false bit as a black cell.
type Matrix struct {
	N    int
	bits []bool // row-major
}

// NewMatrix returns an all-black N×N matrix.
func NewMatrix(n int) Matrix {
	return Matrix{N: n, bits: make([]bool, n*n)}
}

// At reports the bit at row r, column c.
func (m Matrix) At(r, c int) bool { return m.bits[r*m.N+c] }

// Set assigns the bit at row r, column c.
func (m Matrix) Set(r, c int, v bool) { m.bits[r*m.N+c] = v }

// Rotated returns the matrix rotated 90 degrees clockwise.
func (m Matrix) Rotated() Matrix {
	out := NewMatrix(m.N)
	for r := 0; r < m.N; r++ {
		for c := 0; c < m.N; c++ {
			out.Set(c, m.N-1-r, m.At(r, c))
		}
	}
	return out
}

// distance counts differing bits between two equally sized matrices.
func distance(a, b Matrix) int {
	d := 0
	for i := range a.bits {
		if a.bits[i] != b.bits[i] {
			d++
		}
	}
	return d
}

// rotationDistance is the minimum distance between a and any of the four
// rotations of b.
func rotationDistance(a, b Matrix) int {
	min := len(a.bits) + 1
	rot := b
	for i := 0; i < 4; i++ {
		if d := distance(a, rot); d < min {
			min = d
		}
		rot = rot.Rotated()
	}
	return min
}

// selfRotationDistance is the minimum distance between m and its three
// proper rotations. A high value makes the marker's orientation
// unambiguous.
func (m Matrix) selfRotationDistance() int {
	min := len(m.bits) + 1
	rot := m.Rotated()
	for i := 0; i < 3; i++ {
		if d := distance(m, rot); d < min {
			min = d
		}
		rot = rot.Rotated()
	}
	return min
}

// Dictionary is a closed, ordered set of marker patterns. The integer
// identity of a pattern is its index.
type Dictionary struct {
	N       int
	MinDist int // minimum pairwise rotation distance maintained by Generate
	Words   []Matrix
}

const (
	// DefaultSize is the payload grid size of the production dictionary.
	DefaultSize = 5
	// DefaultCount is the number of identities in the production dictionary.
	DefaultCount = 32
	// defaultMinDist keeps decode unambiguous with one sampling error.
	defaultMinDist = 7
	// generationSeed fixes the production dictionary. Changing it changes
	// every marker ever printed, so it never changes.
	generationSeed = 20240117
)

var (
	defaultDict     *Dictionary
	defaultDictOnce sync.Once
)

// DefaultDictionary returns the fixed production dictionary: 32 identities
// of 5×5 patterns. The dictionary is generated deterministically, so the
// same identity always encodes to the same pattern across builds.
func DefaultDictionary() *Dictionary {
	defaultDictOnce.Do(func() {
		defaultDict = GenerateDictionary(DefaultSize, DefaultCount)
	})
	return defaultDict
}

// GenerateDictionary deterministically builds a dictionary of count N×N
// patterns with pairwise rotation distance and self-rotation distance of at
// least defaultMinDist.
func GenerateDictionary(n, count int) *Dictionary {
	d := &Dictionary{N: n, MinDist: defaultMinDist}
	d.Extend(count)
	return d
}

// Extend searches for count further patterns compatible with the existing
// words and appends them, returning how many were found. This is the spare
// identity search used offline when a layout needs more fiducials than the
// dictionary currently holds.
func (d *Dictionary) Extend(count int) int {
	// The PRNG restarts from the fixed seed and skips patterns already in
	// the dictionary, so extending is reproducible regardless of when the
	// earlier entries were generated.
	rng := rand.New(rand.NewSource(generationSeed))
	added := 0
	const maxAttempts = 200000

	for attempt := 0; attempt < maxAttempts && added < count; attempt++ {
		cand := randomMatrix(rng, d.N)
		if cand.selfRotationDistance() < d.MinDist {
			continue
		}
		ok := true
		duplicate := false
		for _, w := range d.Words {
			rd := rotationDistance(cand, w)
			if rd == 0 {
				duplicate = true
				break
			}
			if rd < d.MinDist {
				ok = false
				break
			}
		}
		if duplicate || !ok {
			continue
		}
		d.Words = append(d.Words, cand)
		added++
	}
	return added
}

func randomMatrix(rng *rand.Rand, n int) Matrix {
	m := NewMatrix(n)
	for i := range m.bits {
		m.bits[i] = rng.Intn(2) == 1
	}
	return m
}

// Lookup matches a sampled matrix against the dictionary under all four
// rotations, tolerating up to maxErr bit errors. rot is the number of
// clockwise rotations that map the dictionary pattern onto the sample.
func (d *Dictionary) Lookup(m Matrix, maxErr int) (id, rot int, ok bool) {
	bestDist := maxErr + 1
	for i, w := range d.Words {
		cand := w
		for r := 0; r < 4; r++ {
			if dist := distance(m, cand); dist < bestDist {
				bestDist = dist
				id, rot, ok = i, r, true
			}
			cand = cand.Rotated()
		}
	}
	return id, rot, ok
}
