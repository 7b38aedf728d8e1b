package selection

import (
	"math/rand"
	"sort"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mimobft/codebook"
	"github.com/sarchlab/mimobft/feedback"
)

func key(tx, rx, sector int) feedback.Key {
	return feedback.Key{
		TxAntenna: codebook.AntennaID(tx),
		RxAntenna: codebook.AntennaID(rx),
		TxSector:  codebook.SectorID(sector),
	}
}

func randomMatrix(r *rand.Rand, numTx, numRx, numSectors int) *feedback.Matrix {
	values := map[feedback.Key]float64{}

	for t := 1; t <= numTx; t++ {
		for rx := 1; rx <= numRx; rx++ {
			for s := 1; s <= numSectors; s++ {
				values[key(t, rx, s)] = r.Float64() * 100
			}
		}
	}

	return feedback.NewMatrix(values)
}

type bruteEntry struct {
	tx     []codebook.SectorID
	metric float64
}

func bruteForce(
	m *feedback.Matrix,
	numTx, numRx, numSectors int,
) []bruteEntry {
	all := []bruteEntry{}
	vector := make([]codebook.SectorID, numTx)

	var walk func(t int)
	walk = func(t int) {
		if t == numTx {
			sum := 0.0
			for a := 0; a < numTx; a++ {
				column := 0.0
				for rx := 1; rx <= numRx; rx++ {
					v, _ := m.Value(key(a+1, rx, int(vector[a])))
					column += v
				}
				sum += column
			}

			all = append(all, bruteEntry{
				tx:     append([]codebook.SectorID(nil), vector...),
				metric: sum,
			})

			return
		}

		for s := 1; s <= numSectors; s++ {
			vector[t] = codebook.SectorID(s)
			walk(t + 1)
		}
	}
	walk(0)

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].metric > all[j].metric
	})

	return all
}

var _ = Describe("Select", func() {
	It("should pick the strongest sector of a single antenna pair", func() {
		m := feedback.NewMatrix(map[feedback.Key]float64{
			key(1, 1, 1): 5.0,
			key(1, 1, 2): 2.0,
		})

		c, err := Select(m, 1, 1, 1)

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Tx).To(Equal([][]codebook.SectorID{{1}}))
		Expect(c.Rx).To(Equal([][]codebook.SectorID{{1}}))
		Expect(c.Metrics).To(Equal([]float64{5.0}))
	})

	It("should fail when more combinations are requested than exist", func() {
		m := feedback.NewMatrix(map[feedback.Key]float64{
			key(1, 1, 1): 5.0,
			key(1, 1, 2): 2.0,
		})

		c, err := Select(m, 3, 1, 1)

		Expect(err).To(MatchError(ErrInsufficientCombinations))
		Expect(c.Len()).To(Equal(0))
		Expect(c.Tx).To(BeNil())
		Expect(c.Rx).To(BeNil())
	})

	It("should reject a K below one", func() {
		m := feedback.NewMatrix(map[feedback.Key]float64{key(1, 1, 1): 1})

		_, err := Select(m, 0, 1, 1)

		Expect(err).To(MatchError(ErrInsufficientCombinations))
	})

	It("should fail on an empty matrix", func() {
		_, err := Select(feedback.NewMatrix(nil), 1, 1, 1)

		Expect(err).To(MatchError(feedback.ErrEmptyMatrix))
	})

	It("should fail when a required antenna has no measurement", func() {
		m := feedback.NewMatrix(map[feedback.Key]float64{
			key(1, 1, 1): 1,
			key(1, 2, 1): 1,
		})

		_, err := Select(m, 1, 2, 2)
		Expect(err).To(MatchError(feedback.ErrEmptyMatrix))

		_, err = Select(m, 1, 1, 3)
		Expect(err).To(MatchError(feedback.ErrEmptyMatrix))
	})

	It("should count the available combinations", func() {
		r := rand.New(rand.NewSource(3))
		m := randomMatrix(r, 2, 2, 6)

		n, err := Count(m, 2, 2)

		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(36))
	})

	It("should return aligned lists sorted by descending metric", func() {
		r := rand.New(rand.NewSource(7))
		m := randomMatrix(r, 2, 2, 6)

		c, err := Select(m, 10, 2, 2)

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Tx).To(HaveLen(10))
		Expect(c.Rx).To(HaveLen(10))
		Expect(c.Metrics).To(HaveLen(10))

		for i := range c.Tx {
			Expect(c.Tx[i]).To(HaveLen(2))
			Expect(c.Rx[i]).To(HaveLen(2))

			for _, rxSector := range c.Rx[i] {
				Expect(c.Tx[i]).To(ContainElement(rxSector))
			}

			if i > 0 {
				Expect(c.Metrics[i]).To(BeNumerically("<=", c.Metrics[i-1]))
			}
		}
	})

	It("should agree with an exhaustive search", func() {
		r := rand.New(rand.NewSource(11))

		for trial := 0; trial < 20; trial++ {
			numTx := r.Intn(3) + 1
			numRx := r.Intn(3) + 1
			numSectors := r.Intn(5) + 1
			m := randomMatrix(r, numTx, numRx, numSectors)
			all := bruteForce(m, numTx, numRx, numSectors)
			k := r.Intn(len(all)) + 1

			c, err := Select(m, k, numTx, numRx)

			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < k; i++ {
				Expect(c.Tx[i]).To(Equal(all[i].tx))
				Expect(c.Metrics[i]).To(Equal(all[i].metric))
			}
		}
	})

	It("should break ties by ascending antenna then sector", func() {
		values := map[feedback.Key]float64{}
		for t := 1; t <= 2; t++ {
			for s := 1; s <= 3; s++ {
				values[key(t, 1, s)] = 1
			}
		}
		m := feedback.NewMatrix(values)

		c, err := Select(m, 9, 2, 1)

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Tx).To(Equal([][]codebook.SectorID{
			{1, 1}, {1, 2}, {1, 3},
			{2, 1}, {2, 2}, {2, 3},
			{3, 1}, {3, 2}, {3, 3},
		}))
	})

	It("should let each receive antenna follow its strongest stream", func() {
		m := feedback.NewMatrix(map[feedback.Key]float64{
			key(1, 1, 4): 9,
			key(1, 2, 4): 1,
			key(2, 1, 7): 2,
			key(2, 2, 7): 8,
		})

		c, err := Select(m, 1, 2, 2)

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Tx).To(Equal([][]codebook.SectorID{{4, 7}}))
		Expect(c.Rx).To(Equal([][]codebook.SectorID{{4, 7}}))
	})

	It("should be a pure function", func() {
		r := rand.New(rand.NewSource(5))
		m := randomMatrix(r, 2, 2, 8)
		keysBefore := m.Keys()

		first, err := Select(m, 16, 2, 2)
		Expect(err).NotTo(HaveOccurred())

		second, err := Select(m, 16, 2, 2)
		Expect(err).NotTo(HaveOccurred())

		Expect(second).To(Equal(first))
		Expect(m.Keys()).To(Equal(keysBefore))
	})

	It("should ignore sectors only heard by antennas outside the request", func() {
		m := feedback.NewMatrix(map[feedback.Key]float64{
			key(1, 1, 1): 1,
			key(1, 2, 2): 50,
		})

		n, err := Count(m, 1, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))

		c, err := Select(m, 1, 1, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Tx).To(Equal([][]codebook.SectorID{{1}}))
	})
})
