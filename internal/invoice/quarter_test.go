package invoice

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RealQuarter", func() {
	It("should map months to quarters", func() {
		for month, num := range map[string]int{
			"15/01/2025": 1,
			"31/03/2025": 1,
			"01/04/2025": 2,
			"30/09/2025": 3,
			"01/10/2025": 4,
			"31/12/2025": 4,
		} {
			q, ok := RealQuarter(month)
			Expect(ok).To(BeTrue(), month)
			Expect(q).To(Equal(Quarter{Year: 2025, Num: num}), month)
		}
	})

	It("should accept year-first dates", func() {
		q, ok := RealQuarter("2024-11-05")
		Expect(ok).To(BeTrue())
		Expect(q).To(Equal(Quarter{Year: 2024, Num: 4}))
	})

	It("should report not-ok for unparseable dates", func() {
		_, ok := RealQuarter("pending")
		Expect(ok).To(BeFalse())

		_, ok = RealQuarter("")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("ReportQuarter", func() {
	var selected Quarter

	BeforeEach(func() {
		selected = Quarter{Year: 2025, Num: 1}
	})

	When("the invoice falls in the selected quarter", func() {
		It("should carry the selected labels", func() {
			q, ok := ReportQuarter("15/02/2025", selected)
			Expect(ok).To(BeTrue())
			Expect(q).To(Equal(selected))
		})
	})

	When("a 4T invoice of the previous year meets a 1T selection", func() {
		It("should roll over into the selection", func() {
			q, ok := ReportQuarter("20/12/2024", selected)
			Expect(ok).To(BeTrue())
			Expect(q).To(Equal(selected))
		})
	})

	When("the invoice belongs to an earlier quarter of the same year", func() {
		It("should be excluded from the report", func() {
			selected = Quarter{Year: 2025, Num: 4}

			_, ok := ReportQuarter("10/08/2025", selected)
			Expect(ok).To(BeFalse())
		})
	})

	When("the invoice belongs to an earlier year", func() {
		It("should be excluded from the report", func() {
			_, ok := ReportQuarter("10/08/2023", selected)
			Expect(ok).To(BeFalse())
		})
	})

	When("the invoice belongs to a later quarter", func() {
		It("should carry its own real labels", func() {
			q, ok := ReportQuarter("10/08/2025", selected)
			Expect(ok).To(BeTrue())
			Expect(q).To(Equal(Quarter{Year: 2025, Num: 3}))
		})
	})

	When("the invoice date does not parse", func() {
		It("should carry the selected labels", func() {
			q, ok := ReportQuarter("unknown", selected)
			Expect(ok).To(BeTrue())
			Expect(q).To(Equal(selected))
		})
	})
})

var _ = Describe("ParseQuarterLabel", func() {
	It("should parse 1T through 4T", func() {
		for label, want := range map[string]int{"1T": 1, "2t": 2, " 3T ": 3, "4T": 4} {
			n, ok := ParseQuarterLabel(label)
			Expect(ok).To(BeTrue(), label)
			Expect(n).To(Equal(want), label)
		}
	})

	It("should reject anything else", func() {
		for _, label := range []string{"5T", "T1", "Q1", "", "11T"} {
			_, ok := ParseQuarterLabel(label)
			Expect(ok).To(BeFalse(), label)
		}
	})
})

var _ = Describe("QuarterOfMonth", func() {
	It("should split the year into four quarters", func() {
		Expect(QuarterOfMonth(time.January)).To(Equal(1))
		Expect(QuarterOfMonth(time.March)).To(Equal(1))
		Expect(QuarterOfMonth(time.April)).To(Equal(2))
		Expect(QuarterOfMonth(time.July)).To(Equal(3))
		Expect(QuarterOfMonth(time.December)).To(Equal(4))
	})
})

var _ = Describe("ParseReportingQuarter", func() {
	It("should accept valid operator input", func() {
		q, err := ParseReportingQuarter("3", "2025")
		Expect(err).ToNot(HaveOccurred())
		Expect(q).To(Equal(Quarter{Year: 2025, Num: 3}))
	})

	It("should reject out-of-range quarters", func() {
		_, err := ParseReportingQuarter("5", "2025")
		Expect(err).To(HaveOccurred())

		_, err = ParseReportingQuarter("0", "2025")
		Expect(err).To(HaveOccurred())
	})

	It("should reject non-4-digit years", func() {
		_, err := ParseReportingQuarter("1", "25")
		Expect(err).To(HaveOccurred())

		_, err = ParseReportingQuarter("1", "twenty")
		Expect(err).To(HaveOccurred())
	})
})
