package station

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SeedResult reports what Seed inserted
type SeedResult struct {
	Seeded      bool
	Machines    int
	Employees   int
	FuelEntries int
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

// Seed inserts demo machines, employees and fuel entries for owner. Nothing is written unless
// there are no machines, no employees and no fuel entries owned by owner.
func (d *Directory) Seed(ctx context.Context, owner string) (*SeedResult, error) {
	machineCount, err := d.store.CountMachines(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting machines: %w", err)
	}
	employeeCount, err := d.store.CountEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting employees: %w", err)
	}
	fuel, err := d.store.ListFuelEntries(ctx, FuelFilter{UserID: owner})
	if err != nil {
		return nil, fmt.Errorf("listing fuel entries: %w", err)
	}
	if machineCount > 0 || employeeCount > 0 || len(fuel) > 0 {
		slog.Info("seed skipped, data already exists", "user", owner)
		return &SeedResult{}, nil
	}

	machines := []MachineInput{
		{
			Name: "Pump Station 1", MachineID: "PS001", Location: "Main Entrance",
			FuelTypes: []FuelType{FuelPetrol, FuelDiesel}, Status: MachineActive,
			LastMaintenance: ptr(day(2025, time.April, 1)), Notes: ptr("High traffic location"),
		},
		{
			Name: "Pump Station 2", MachineID: "PS002", Location: "North Side",
			FuelTypes: []FuelType{FuelPetrol, FuelCNG}, Status: MachineActive,
			LastMaintenance: ptr(day(2025, time.April, 15)), Notes: ptr("CNG specialist pump"),
		},
		{
			Name: "Pump Station 3", MachineID: "PS003", Location: "South Side",
			FuelTypes: []FuelType{FuelPetrol, FuelDiesel, FuelCNG}, Status: MachineMaintenance,
			LastMaintenance: ptr(day(2025, time.May, 2)), Notes: ptr("Currently under maintenance"),
		},
	}
	employees := []EmployeeInput{
		{
			Name: "Rahul Sharma", EmployeeID: "EMP001", Position: "Pump Operator",
			ContactNumber: "9876543210", Email: "rahul@example.com", Status: EmployeeActive,
			JoinDate: ptr(day(2024, time.January, 15)),
		},
		{
			Name: "Priya Patel", EmployeeID: "EMP002", Position: "Cashier",
			ContactNumber: "9876543211", Email: "priya@example.com", Status: EmployeeActive,
			JoinDate: ptr(day(2024, time.February, 10)),
		},
		{
			Name: "Amit Kumar", EmployeeID: "EMP003", Position: "Pump Operator",
			ContactNumber: "9876543212", Email: "amit@example.com", Status: EmployeeOnLeave,
			JoinDate: ptr(day(2023, time.November, 5)),
		},
	}

	result := &SeedResult{Seeded: true}

	createdMachines := make([]*Machine, 0, len(machines))
	for _, in := range machines {
		m, err := d.CreateMachine(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("seeding machine %s: %w", in.MachineID, err)
		}
		createdMachines = append(createdMachines, m)
	}
	result.Machines = len(createdMachines)

	createdEmployees := make([]*Employee, 0, len(employees))
	for _, in := range employees {
		e, err := d.CreateEmployee(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("seeding employee %s: %w", in.EmployeeID, err)
		}
		createdEmployees = append(createdEmployees, e)
	}
	result.Employees = len(createdEmployees)

	entries := []*FuelEntry{
		{
			MachineRef: &createdMachines[0].ID, EmployeeRef: &createdEmployees[0].ID,
			Date: day(2025, time.May, 1), FuelType: FuelPetrol, Quantity: 35.5, PricePerUnit: 92.34,
			OdometerReading: ptr(12500), Location: "Main Entrance", Shift: ShiftMorning,
		},
		{
			MachineRef: &createdMachines[1].ID, EmployeeRef: &createdEmployees[1].ID,
			Date: day(2025, time.April, 15), FuelType: FuelPetrol, Quantity: 40.2, PricePerUnit: 91.75,
			OdometerReading: ptr(12200), Location: "North Side", Shift: ShiftAfternoon,
		},
		{
			MachineRef: &createdMachines[0].ID, EmployeeRef: &createdEmployees[2].ID,
			Date: day(2025, time.April, 2), FuelType: FuelDiesel, Quantity: 30.8, PricePerUnit: 93.10,
			OdometerReading: ptr(11950), Location: "Main Entrance", Shift: ShiftEvening,
		},
	}
	now := d.clock.Now()
	for _, e := range entries {
		e.ID = d.ids.Generate()
		e.UserID = owner
		e.CreatedAt, e.UpdatedAt = now, now
		e.Normalize()
		if err := d.store.CreateFuelEntry(ctx, e); err != nil {
			return nil, fmt.Errorf("seeding fuel entry: %w", err)
		}
		result.FuelEntries++
	}

	slog.Info("seeded demo data",
		"user", owner,
		"machines", result.Machines,
		"employees", result.Employees,
		"fuelEntries", result.FuelEntries)
	return result, nil
}
