package fuel

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/zombor/fuel-station/internal/station"
)

// Stats is the dashboard summary of a user's fuel sales
type Stats struct {
	Overall       Overall         `json:"overall"`
	FuelTypes     []FuelTypeStats `json:"fuelTypes"`
	Shifts        []ShiftStats    `json:"shifts"`
	MachineCount  int             `json:"machineCount"`
	EmployeeCount int             `json:"employeeCount"`
}

// Overall totals every entry in the period
type Overall struct {
	TotalQuantity    decimal.Decimal `json:"totalQuantity"`
	TotalCost        decimal.Decimal `json:"totalCost"`
	AveragePrice     decimal.Decimal `json:"avgPrice"`
	TransactionCount int             `json:"transactionCount"`
}

type FuelTypeStats struct {
	Type         station.FuelType `json:"type"`
	Quantity     decimal.Decimal  `json:"quantity"`
	Cost         decimal.Decimal  `json:"cost"`
	Count        int              `json:"count"`
	AveragePrice decimal.Decimal  `json:"avgPrice"`
}

type ShiftStats struct {
	Shift    station.Shift   `json:"shift"`
	Quantity decimal.Decimal `json:"quantity"`
	Cost     decimal.Decimal `json:"cost"`
	Count    int             `json:"count"`
}

type tally struct {
	quantity decimal.Decimal
	cost     decimal.Decimal
	count    int
}

func (t *tally) add(e *station.FuelEntry) {
	t.quantity = t.quantity.Add(decimal.NewFromFloat(e.Quantity))
	t.cost = t.cost.Add(decimal.NewFromFloat(e.TotalCost))
	t.count++
}

// averagePrice is cost per unit, zero when nothing was sold
func (t *tally) averagePrice() decimal.Decimal {
	if t.quantity.IsZero() {
		return decimal.Zero
	}
	return t.cost.Div(t.quantity).Round(2)
}

// Summarize aggregates entries overall, by fuel type and by shift. Groups appear in the order
// they are first seen and entries without a shift count as Morning.
func Summarize(entries []*station.FuelEntry) *Stats {
	var overall tally
	var fuelTypes []station.FuelType
	byType := make(map[station.FuelType]*tally)
	var shifts []station.Shift
	byShift := make(map[station.Shift]*tally)

	for _, e := range entries {
		overall.add(e)

		t, ok := byType[e.FuelType]
		if !ok {
			t = &tally{}
			byType[e.FuelType] = t
			fuelTypes = append(fuelTypes, e.FuelType)
		}
		t.add(e)

		shift := e.Shift
		if shift == "" {
			shift = station.ShiftMorning
		}
		t, ok = byShift[shift]
		if !ok {
			t = &tally{}
			byShift[shift] = t
			shifts = append(shifts, shift)
		}
		t.add(e)
	}

	stats := &Stats{
		Overall: Overall{
			TotalQuantity:    overall.quantity.Round(2),
			TotalCost:        overall.cost.Round(2),
			AveragePrice:     overall.averagePrice(),
			TransactionCount: overall.count,
		},
		FuelTypes: make([]FuelTypeStats, 0, len(fuelTypes)),
		Shifts:    make([]ShiftStats, 0, len(shifts)),
	}
	for _, ft := range fuelTypes {
		t := byType[ft]
		stats.FuelTypes = append(stats.FuelTypes, FuelTypeStats{
			Type:         ft,
			Quantity:     t.quantity.Round(2),
			Cost:         t.cost.Round(2),
			Count:        t.count,
			AveragePrice: t.averagePrice(),
		})
	}
	for _, sh := range shifts {
		t := byShift[sh]
		stats.Shifts = append(stats.Shifts, ShiftStats{
			Shift:    sh,
			Quantity: t.quantity.Round(2),
			Cost:     t.cost.Round(2),
			Count:    t.count,
		})
	}
	return stats
}

// Stats summarizes the owner's entries dated within the period, together with the number of
// machines and employees at the station
func (s *Service) Stats(ctx context.Context, owner string, period station.Period) (*Stats, error) {
	entries, err := s.store.ListFuelEntries(ctx, station.FuelFilter{
		UserID: owner,
		Since:  period.Since(s.timeSource.Now()),
	})
	if err != nil {
		return nil, fmt.Errorf("computing fuel stats: %w", err)
	}

	stats := Summarize(entries)

	if stats.MachineCount, err = s.store.CountMachines(ctx); err != nil {
		return nil, fmt.Errorf("counting machines: %w", err)
	}
	if stats.EmployeeCount, err = s.store.CountEmployees(ctx); err != nil {
		return nil, fmt.Errorf("counting employees: %w", err)
	}
	return stats, nil
}
