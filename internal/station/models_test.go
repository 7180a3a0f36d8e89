package station_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/zombor/fuel-station/internal/station"
)

var _ = Describe("CostOf", func() {
	It("rounds to two decimal places", func() {
		Expect(station.CostOf(35.5, 92.34)).To(Equal(3278.07))
		Expect(station.CostOf(30.8, 93.10)).To(Equal(2867.48))
	})

	It("is zero for a zero quantity", func() {
		Expect(station.CostOf(0, 92.34)).To(BeZero())
	})
})

var _ = Describe("FuelEntry", func() {
	var entry *station.FuelEntry

	BeforeEach(func() {
		entry = &station.FuelEntry{FuelType: station.FuelPetrol, Quantity: 2, PricePerUnit: 1.255, TotalCost: 999}
	})

	Describe("Normalize", func() {
		JustBeforeEach(func() {
			entry.Normalize()
		})

		It("defaults the shift to Morning", func() {
			Expect(entry.Shift).To(Equal(station.ShiftMorning))
		})

		It("ignores the supplied total cost", func() {
			Expect(entry.TotalCost).To(Equal(2.51))
		})
	})

	Describe("Validate", func() {
		var err error

		JustBeforeEach(func() {
			err = entry.Validate()
		})

		When("all required fields are present", func() {
			It("passes", func() {
				Expect(err).NotTo(HaveOccurred())
			})
		})

		When("required fields are missing", func() {
			BeforeEach(func() {
				entry = &station.FuelEntry{}
			})

			It("reports every missing field", func() {
				var verr *station.ValidationError
				Expect(errors.As(err, &verr)).To(BeTrue())
				Expect(verr.Message).To(Equal("Missing required fields"))
				Expect(verr.Fields).To(HaveKey("fuelType"))
				Expect(verr.Fields).To(HaveKey("quantity"))
				Expect(verr.Fields).To(HaveKey("pricePerUnit"))
			})
		})

		When("quantity and price are not finite", func() {
			BeforeEach(func() {
				entry.Quantity = math.NaN()
				entry.PricePerUnit = math.Inf(1)
			})

			It("rejects both", func() {
				var verr *station.ValidationError
				Expect(errors.As(err, &verr)).To(BeTrue())
				Expect(verr.Fields).To(HaveKey("quantity"))
				Expect(verr.Fields).To(HaveKey("pricePerUnit"))
			})
		})

		When("the shift is unknown", func() {
			BeforeEach(func() {
				entry.Shift = "Graveyard"
			})

			It("rejects the shift", func() {
				var verr *station.ValidationError
				Expect(errors.As(err, &verr)).To(BeTrue())
				Expect(verr.Fields).To(HaveKey("shift"))
			})
		})
	})
})

var _ = Describe("ParseReading", func() {
	It("parses numbers with thousands separators", func() {
		got := station.ParseReading(" 1,234.50 ")
		Expect(got.Valid).To(BeTrue())
		Expect(got.Decimal.Equal(decimal.RequireFromString("1234.5"))).To(BeTrue())
	})

	It("returns null for unreadable text", func() {
		Expect(station.ParseReading("l2.5O").Valid).To(BeFalse())
		Expect(station.ParseReading("").Valid).To(BeFalse())
	})
})

var _ = Describe("ValidationError", func() {
	It("lists field names in a stable order", func() {
		verr := station.NewValidationError("Invalid machine")
		verr.Add("name", "Name is required")
		verr.Add("machineId", "Machine ID is required")
		Expect(verr.Error()).To(Equal("Invalid machine: machineId, name"))
	})

	It("is nil when nothing was added", func() {
		Expect(station.NewValidationError("ok").OrNil()).To(BeNil())
	})
})
