package fuel

import (
	"bytes"
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"

	"github.com/zombor/fuel-station/internal/station"
)

var _ = Describe("Export", func() {
	var (
		ctx      context.Context
		clock    *mockTimeSource
		service  *Service
		workbook *excelize.File
	)

	BeforeEach(func() {
		ctx = context.Background()
		clock = &mockTimeSource{now: time.Date(2025, 5, 14, 10, 0, 0, 0, time.UTC)}
		service = NewServiceWithDeps(newTestStore(ctx, clock.now), &mockIDGenerator{}, clock)

		_, err := service.Create(ctx, "user-1", Input{
			FuelType: station.FuelDiesel, Quantity: 20, PricePerUnit: 89.75,
			MachineID: "PS001", EmployeeID: "EMP001", Shift: station.ShiftEvening,
		})
		Expect(err).NotTo(HaveOccurred())
		_, err = service.Create(ctx, "user-2", Input{FuelType: station.FuelPetrol, Quantity: 1, PricePerUnit: 1})
		Expect(err).NotTo(HaveOccurred())
	})

	JustBeforeEach(func() {
		data, err := service.Export(ctx, "user-1", station.PeriodAll)
		Expect(err).NotTo(HaveOccurred())

		workbook, err = excelize.OpenReader(bytes.NewReader(data))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(workbook.Close)
	})

	It("has an entries sheet and a summary sheet", func() {
		Expect(workbook.GetSheetList()).To(Equal([]string{"Entries", "Summary"}))
	})

	It("writes one row per owned entry", func() {
		rows, err := workbook.GetRows("Entries")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(2))
		Expect(rows[0][0]).To(Equal("Date"))
		Expect(rows[1][1]).To(Equal("Diesel"))
		Expect(rows[1][4]).To(Equal("1795"))
		Expect(rows[1][5]).To(Equal("Evening"))
		Expect(rows[1][6]).To(Equal("PS001"))
		Expect(rows[1][7]).To(Equal("Rahul Sharma"))
	})

	It("writes the totals", func() {
		cell, err := workbook.GetCellValue("Summary", "B7")
		Expect(err).NotTo(HaveOccurred())
		Expect(cell).To(Equal("1"))

		period, err := workbook.GetCellValue("Summary", "B1")
		Expect(err).NotTo(HaveOccurred())
		Expect(period).To(Equal("all"))
	})
})

var _ = Describe("ExportName", func() {
	It("names the period and time", func() {
		now := time.Date(2025, 5, 14, 10, 30, 0, 0, time.UTC)
		Expect(ExportName(station.PeriodWeek, now)).To(Equal("fuel-week-20250514_103000.xlsx"))
	})
})
