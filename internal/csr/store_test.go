package csr_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tphakala/go-adc-decimator/internal/csr"
	"github.com/tphakala/go-adc-decimator/internal/status"
)

var _ = Describe("Address map", func() {
	DescribeTable("classifies addresses",
		func(addr int, want csr.Region) {
			Expect(csr.Classify(uint8(addr))).To(Equal(want))
		},
		Entry("first FIR word", 0x00, csr.RegionFIR),
		Entry("last FIR word", 0x3F, csr.RegionFIR),
		Entry("first halfband word", 0x40, csr.RegionHalfband),
		Entry("last halfband word", 0x60, csr.RegionHalfband),
		Entry("general word", 0x61, csr.RegionGeneral),
		Entry("last writable word", 0x7F, csr.RegionGeneral),
		Entry("status byte", 0x80, csr.RegionStatus),
		Entry("error bit", 0x83, csr.RegionStatus),
		Entry("first reserved", 0x84, csr.RegionReserved),
		Entry("last reserved", 0xFF, csr.RegionReserved),
	)

	It("partitions the full 8-bit space without gaps", func() {
		counts := map[csr.Region]int{}
		for a := 0; a <= 0xFF; a++ {
			counts[csr.Classify(uint8(a))]++
		}
		Expect(counts[csr.RegionFIR]).To(Equal(csr.FIRWordCount))
		Expect(counts[csr.RegionHalfband]).To(Equal(csr.HalfbandWordCount))
		Expect(counts[csr.RegionGeneral]).To(Equal(0x1F))
		Expect(counts[csr.RegionStatus]).To(Equal(4))
		Expect(counts[csr.RegionReserved]).To(Equal(0x7C))
	})

	It("names regions", func() {
		Expect(csr.RegionHalfband.String()).To(Equal("halfband"))
		Expect(csr.Region(42).String()).To(Equal("region(42)"))
		Expect(csr.RegionFIR.IsCoefficient()).To(BeTrue())
		Expect(csr.RegionGeneral.IsCoefficient()).To(BeFalse())
	})
})

var _ = Describe("Store", func() {
	var s *csr.Store

	BeforeEach(func() {
		s = csr.New()
	})

	Describe("reset", func() {
		It("loads the default banks", func() {
			fir := csr.DefaultFIRCoefficients()
			for i, c := range fir {
				Expect(s.Read(uint8(csr.FIRBase + i))).To(Equal(csr.Word(c)))
			}
			hb := csr.DefaultHalfbandCoefficients()
			for i, c := range hb {
				Expect(s.Read(uint8(csr.HalfbandBase + i))).To(Equal(csr.Word(c)))
			}
		})

		It("zeroes the general words", func() {
			for a := csr.HalfbandLast + 1; a < csr.RegisterCount; a++ {
				Expect(s.Read(uint8(a))).To(BeZero())
			}
		})

		It("is idempotent", func() {
			first := s.Dump()
			s.Reset()
			Expect(s.Dump()).To(Equal(first))
		})

		It("restores defaults after writes", func() {
			Expect(s.Write(0x05, 0x1234)).To(BeTrue())
			s.Tick(status.Snapshot{FIR: status.Overflow})
			s.Reset()

			Expect(s.Read(0x05)).To(Equal(csr.Word(csr.DefaultFIRCoefficients()[5])))
			Expect(s.WriteReady()).To(BeTrue())
			Expect(s.Read(csr.AddrStatus)).To(BeZero())
		})

		It("keeps the halfband odd taps zero", func() {
			for i, c := range csr.DefaultHalfbandCoefficients() {
				if i%2 == 1 {
					Expect(c).To(BeZero())
				}
			}
		})

		It("returns copies of the default banks", func() {
			fir := csr.DefaultFIRCoefficients()
			fir[0] = 99
			Expect(csr.DefaultFIRCoefficients()[0]).NotTo(Equal(int32(99)))
		})

		It("stores negative defaults as 18-bit patterns", func() {
			Expect(csr.Word(-16)).To(Equal(uint32(0x3FFF0)))
			Expect(csr.Word(-1)).To(Equal(uint32(csr.CoeffMask)))
			for a := csr.FIRBase; a <= csr.HalfbandLast; a++ {
				Expect(s.Read(uint8(a))).To(BeNumerically("<=", csr.CoeffMask))
			}
		})
	})

	Describe("writes", func() {
		It("stores coefficient words and marks the bank", func() {
			Expect(s.Write(0x10, 0x00010000)).To(BeTrue())
			Expect(s.Read(0x10)).To(Equal(uint32(0x00010000)))

			fir, hb := s.TakeUpdates()
			Expect(fir).To(BeTrue())
			Expect(hb).To(BeFalse())

			fir, _ = s.TakeUpdates()
			Expect(fir).To(BeFalse())
		})

		It("drops write-ready for exactly one tick after an accepted write", func() {
			Expect(s.Write(0x41, 0)).To(BeTrue())
			Expect(s.WriteReady()).To(BeTrue(), "ready falls at the end of the tick")

			s.Tick(status.Snapshot{})
			Expect(s.WriteReady()).To(BeFalse())
			Expect(s.Write(0x42, 7)).To(BeFalse())
			Expect(s.Read(0x42)).To(BeZero())

			s.Tick(status.Snapshot{})
			Expect(s.WriteReady()).To(BeTrue())
			Expect(s.Write(0x42, 7)).To(BeTrue())
		})

		It("rejects reserved addresses with InvalidAddress", func() {
			before := s.Dump()
			Expect(s.Write(0x90, 0xDEADBEEF)).To(BeTrue())
			Expect(s.Flags()).To(Equal(status.InvalidAddress))
			Expect(s.Dump()).To(Equal(before))
			Expect(s.Read(0x90)).To(BeZero())
		})

		It("drops writes to the status words without error", func() {
			Expect(s.Write(csr.AddrErrorType, 5)).To(BeTrue())
			Expect(s.Flags()).To(BeZero())
			Expect(s.Read(csr.AddrErrorType)).To(BeZero())
		})

		DescribeTable("range-checks coefficient words",
			func(addr int, word uint32, flagged bool) {
				Expect(s.Write(uint8(addr), word)).To(BeTrue())
				Expect(s.Flags().Has(status.CoeffRange)).To(Equal(flagged))
				Expect(s.Read(uint8(addr))).To(Equal(word), "raw word is stored")
			},
			Entry("max positive", 0x00, uint32(0x0001FFFF), false),
			Entry("most negative pattern", 0x00, uint32(0x00020000), false),
			Entry("minus sixteen pattern", 0x3F, uint32(0x0003FFF0), false),
			Entry("all ones pattern", 0x40, uint32(0x0003FFFF), false),
			Entry("one past the field", 0x40, uint32(0x00040000), true),
			Entry("sign-extended minus one", 0x3F, uint32(0xFFFFFFFF), true),
			Entry("large word", 0x60, uint32(0x7FFFFFFF), true),
			Entry("general word is unchecked", 0x70, uint32(0x7FFFFFFF), false),
		)

		It("clears write flags on tick", func() {
			s.Write(0xFF, 1)
			snap := s.Tick(status.Snapshot{})
			Expect(snap.Store).To(Equal(status.InvalidAddress))
			Expect(s.Flags()).To(BeZero())
		})
	})

	Describe("status reads", func() {
		It("reads zero for reserved addresses", func() {
			s.Tick(status.Snapshot{CIC: status.Active | status.Overflow})
			for a := csr.ReservedBase; a <= 0xFF; a++ {
				Expect(s.Read(uint8(a))).To(BeZero())
			}
		})

		It("reports the latched status byte, busy, error type and error", func() {
			s.Tick(status.Snapshot{
				CIC: status.Active,
				FIR: status.Active | status.Busy,
			})
			Expect(s.Read(csr.AddrStatus)).To(Equal(uint32(0xC0)))
			Expect(s.Read(csr.AddrBusy)).To(Equal(uint32(1)))
			Expect(s.Read(csr.AddrErrorType)).To(BeZero())
			Expect(s.Read(csr.AddrError)).To(BeZero())
		})

		It("gives overflow precedence over an invalid address", func() {
			s.Write(0xA0, 1)
			s.Tick(status.Snapshot{CIC: status.Active | status.Overflow})

			Expect(s.Read(csr.AddrErrorType)).To(Equal(uint32(status.ErrorOverflow)))
			Expect(s.Read(csr.AddrError)).To(Equal(uint32(1)))
			Expect(s.Read(csr.AddrStatus) & (1 << status.BitInvalidConfig)).NotTo(BeZero())
		})

		It("reports a coefficient range error on its own", func() {
			s.Write(0x00, 0x00100000)
			s.Tick(status.Snapshot{})
			Expect(s.Read(csr.AddrErrorType)).To(Equal(uint32(status.ErrorCoeffRange)))
			Expect(s.Read(csr.AddrStatus)).To(Equal(uint32(0x11)))
		})

		It("does not carry error status past the next tick", func() {
			s.Write(0xA0, 1)
			s.Tick(status.Snapshot{})
			Expect(s.Read(csr.AddrError)).To(Equal(uint32(1)))
			s.Tick(status.Snapshot{})
			Expect(s.Read(csr.AddrError)).To(BeZero())
			Expect(s.Read(csr.AddrStatus)).To(BeZero())
		})
	})

	Describe("bank access", func() {
		It("returns the coefficient regions", func() {
			s.Write(0x3F, 11)
			s.Tick(status.Snapshot{})
			s.Tick(status.Snapshot{})
			s.Write(0x60, 22)

			fir := s.FIRWords()
			hb := s.HalfbandWords()
			Expect(fir).To(HaveLen(csr.FIRWordCount))
			Expect(hb).To(HaveLen(csr.HalfbandWordCount))
			Expect(fir[csr.FIRWordCount-1]).To(Equal(uint32(11)))
			Expect(hb[csr.HalfbandWordCount-1]).To(Equal(uint32(22)))
		})

		It("dumps every readable word", func() {
			Expect(s.Dump()).To(HaveLen(csr.ReservedBase))
		})
	})
})
