package fuel

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/zombor/fuel-station/internal/station"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var _ = Describe("Summarize", func() {
	It("returns zeros for no entries", func() {
		stats := Summarize(nil)
		Expect(stats.Overall.TransactionCount).To(BeZero())
		Expect(stats.Overall.TotalQuantity.IsZero()).To(BeTrue())
		Expect(stats.Overall.AveragePrice.IsZero()).To(BeTrue())
		Expect(stats.FuelTypes).To(BeEmpty())
		Expect(stats.Shifts).To(BeEmpty())
	})

	It("groups by fuel type and shift in first-seen order", func() {
		entries := []*station.FuelEntry{
			{FuelType: station.FuelDiesel, Quantity: 10, TotalCost: 900, Shift: station.ShiftNight},
			{FuelType: station.FuelPetrol, Quantity: 5.5, TotalCost: 563.75},
			{FuelType: station.FuelDiesel, Quantity: 0.1, TotalCost: 9.01, Shift: station.ShiftMorning},
		}

		stats := Summarize(entries)

		Expect(stats.Overall.TransactionCount).To(Equal(3))
		Expect(stats.Overall.TotalQuantity.Equal(dec("15.6"))).To(BeTrue())
		Expect(stats.Overall.TotalCost.Equal(dec("1472.76"))).To(BeTrue())
		Expect(stats.Overall.AveragePrice.Equal(dec("94.41"))).To(BeTrue())

		Expect(stats.FuelTypes).To(HaveLen(2))
		Expect(stats.FuelTypes[0].Type).To(Equal(station.FuelDiesel))
		Expect(stats.FuelTypes[0].Count).To(Equal(2))
		Expect(stats.FuelTypes[0].Quantity.Equal(dec("10.1"))).To(BeTrue())
		Expect(stats.FuelTypes[0].Cost.Equal(dec("909.01"))).To(BeTrue())
		Expect(stats.FuelTypes[0].AveragePrice.Equal(dec("90"))).To(BeTrue())
		Expect(stats.FuelTypes[1].Type).To(Equal(station.FuelPetrol))
		Expect(stats.FuelTypes[1].AveragePrice.Equal(dec("102.5"))).To(BeTrue())

		Expect(stats.Shifts).To(HaveLen(2))
		Expect(stats.Shifts[0].Shift).To(Equal(station.ShiftNight))
		Expect(stats.Shifts[1].Shift).To(Equal(station.ShiftMorning))
		Expect(stats.Shifts[1].Count).To(Equal(2))
	})

	It("sums money without float drift", func() {
		entries := []*station.FuelEntry{
			{FuelType: station.FuelCNG, Quantity: 0.1, TotalCost: 0.1},
			{FuelType: station.FuelCNG, Quantity: 0.2, TotalCost: 0.2},
		}
		stats := Summarize(entries)
		Expect(stats.Overall.TotalCost.String()).To(Equal("0.3"))
	})
})

var _ = Describe("Service.Stats", func() {
	var (
		ctx     context.Context
		clock   *mockTimeSource
		service *Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		clock = &mockTimeSource{now: time.Date(2025, 5, 14, 10, 0, 0, 0, time.UTC)}
		service = NewServiceWithDeps(newTestStore(ctx, clock.now), &mockIDGenerator{}, clock)

		for _, daysAgo := range []int{0, 1, 30} {
			date := clock.now.AddDate(0, 0, -daysAgo)
			_, err := service.Create(ctx, "user-1", Input{
				FuelType: station.FuelPetrol, Quantity: 10, PricePerUnit: 100, Date: &date,
			})
			Expect(err).NotTo(HaveOccurred())
		}
		_, err := service.Create(ctx, "user-2", Input{FuelType: station.FuelPetrol, Quantity: 1, PricePerUnit: 1})
		Expect(err).NotTo(HaveOccurred())
	})

	It("covers the owner's entries in the period", func() {
		stats, err := service.Stats(ctx, "user-1", station.PeriodToday)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Overall.TransactionCount).To(Equal(1))
		Expect(stats.Overall.TotalCost.Equal(dec("1000"))).To(BeTrue())
	})

	It("covers all of the owner's entries by default", func() {
		stats, err := service.Stats(ctx, "user-1", station.PeriodAll)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Overall.TransactionCount).To(Equal(3))
	})

	It("counts shared machines and employees", func() {
		stats, err := service.Stats(ctx, "user-1", station.PeriodAll)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.MachineCount).To(Equal(1))
		Expect(stats.EmployeeCount).To(Equal(1))
	})
})
