package codebook

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mimobft/link"
)

var _ = Describe("Codebook", func() {
	var book *Codebook

	BeforeEach(func() {
		book = NewUniform(2, 8, 5)
	})

	It("should round trip every AWV", func() {
		seen := map[AwvID]bool{}

		for _, a := range book.Antennas() {
			for _, s := range book.Sectors() {
				for v := 0; v < book.AwvsPerSector(); v++ {
					awv, err := book.Awv(a, s, v)
					Expect(err).NotTo(HaveOccurred())
					Expect(seen).NotTo(HaveKey(awv))
					seen[awv] = true

					loc, err := book.Resolve(awv)
					Expect(err).NotTo(HaveOccurred())
					Expect(loc).To(Equal(Location{Antenna: a, Sector: s, SubBeam: v}))
				}
			}
		}

		Expect(seen).To(HaveLen(2 * 8 * 5))
	})

	It("should list the AWVs of a sector, sector beam first", func() {
		awvs, err := book.AwvsOf(2, 3)

		Expect(err).NotTo(HaveOccurred())
		Expect(awvs).To(HaveLen(5))

		first, _ := book.Awv(2, 3, 0)
		Expect(awvs[0]).To(Equal(first))
	})

	It("should reject out of range lookups", func() {
		_, err := book.Resolve(AwvID(2 * 8 * 5))
		Expect(err).To(MatchError(ErrMalformedAwvID))

		_, err = book.Awv(3, 1, 0)
		Expect(err).To(MatchError(ErrMalformedAwvID))

		_, err = book.Awv(1, 0, 0)
		Expect(err).To(MatchError(ErrMalformedAwvID))

		_, err = book.Awv(1, 1, 5)
		Expect(err).To(MatchError(ErrMalformedAwvID))
	})

	It("should panic on an empty codebook", func() {
		Expect(func() { NewUniform(0, 1, 1) }).To(Panic())
		Expect(func() { NewUniform(1, 0, 1) }).To(Panic())
		Expect(func() { NewUniform(1, 1, 0) }).To(Panic())
	})
})

var _ = Describe("Registry", func() {
	var registry *Registry

	BeforeEach(func() {
		registry = NewRegistry()
		registry.Register(1, NewUniform(2, 4, 1), nil)
		registry.Register(2, NewUniform(2, 4, 1), NewUniform(2, 2, 1))
	})

	It("should fall back to the transmit codebook for receiving", func() {
		tx, err := registry.Lookup(1, Tx)
		Expect(err).NotTo(HaveOccurred())

		rx, err := registry.Lookup(1, Rx)
		Expect(err).NotTo(HaveOccurred())
		Expect(rx).To(BeIdenticalTo(tx))
	})

	It("should resolve against the codebook of the direction", func() {
		loc, err := registry.ResolveAwv(7, 2, Tx)
		Expect(err).NotTo(HaveOccurred())
		Expect(loc).To(Equal(Location{Antenna: 2, Sector: 4}))

		_, err = registry.ResolveAwv(7, 2, Rx)
		Expect(err).To(MatchError(ErrMalformedAwvID))
	})

	It("should fail for unknown stations", func() {
		_, err := registry.ResolveAwv(0, link.StationID(9), Tx)

		Expect(err).To(MatchError(ErrMalformedAwvID))
	})
})
