package station_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/fuel-station/internal/station"
)

var _ = Describe("Period", func() {
	Describe("ParsePeriod", func() {
		It("treats an empty value as all", func() {
			p, err := station.ParsePeriod("")
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(Equal(station.PeriodAll))
		})

		It("ignores case", func() {
			p, err := station.ParsePeriod("Week")
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(Equal(station.PeriodWeek))
		})

		It("rejects unknown values", func() {
			_, err := station.ParsePeriod("fortnight")
			var verr *station.ValidationError
			Expect(errors.As(err, &verr)).To(BeTrue())
			Expect(verr.Fields).To(HaveKey("period"))
		})
	})

	Describe("Since", func() {
		var (
			loc *time.Location
			now time.Time
		)

		BeforeEach(func() {
			loc = time.FixedZone("IST", 5*3600+1800)
			// a Wednesday
			now = time.Date(2025, time.May, 14, 15, 30, 0, 0, loc)
		})

		It("starts today at local midnight", func() {
			Expect(station.PeriodToday.Since(now)).To(Equal(time.Date(2025, time.May, 14, 0, 0, 0, 0, loc)))
		})

		It("starts the week on the most recent Sunday", func() {
			Expect(station.PeriodWeek.Since(now)).To(Equal(time.Date(2025, time.May, 11, 0, 0, 0, 0, loc)))
		})

		It("starts a week that begins today when today is Sunday", func() {
			sunday := time.Date(2025, time.May, 11, 8, 0, 0, 0, loc)
			Expect(station.PeriodWeek.Since(sunday)).To(Equal(time.Date(2025, time.May, 11, 0, 0, 0, 0, loc)))
		})

		It("starts the month on the first", func() {
			Expect(station.PeriodMonth.Since(now)).To(Equal(time.Date(2025, time.May, 1, 0, 0, 0, 0, loc)))
		})

		It("starts the year on January 1", func() {
			Expect(station.PeriodYear.Since(now)).To(Equal(time.Date(2025, time.January, 1, 0, 0, 0, 0, loc)))
		})

		It("has no bound for all", func() {
			Expect(station.PeriodAll.Since(now).IsZero()).To(BeTrue())
		})
	})
})
