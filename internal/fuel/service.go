package fuel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/zombor/fuel-station/internal/station"
)

// Store is what the fuel service needs from the entity store
type Store interface {
	station.FuelStore
	station.MachineStore
	station.EmployeeStore
}

// Amount is a number that clients may send either as a JSON number or as a numeric string
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parsing amount %q: %w", s, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("parsing amount %q: not a finite number", s)
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}

// Input is a request to record a fuel sale. MachineID and EmployeeID are business ids.
type Input struct {
	FuelType        station.FuelType `json:"fuelType"`
	Quantity        Amount           `json:"quantity"`
	PricePerUnit    Amount           `json:"pricePerUnit"`
	OdometerReading *Amount          `json:"odometerReading"`
	Location        string           `json:"location"`
	Notes           string           `json:"notes"`
	Date            *time.Time       `json:"date"`
	MachineID       string           `json:"machineId"`
	EmployeeID      string           `json:"employeeId"`
	Shift           station.Shift    `json:"shift"`
}

// Service records fuel entries and reports on them
type Service struct {
	store       Store
	idGenerator station.IDGenerator
	timeSource  station.TimeSource
}

// NewService creates a new Service with UUID ids and the system clock
func NewService(store Store) *Service {
	return NewServiceWithDeps(store, station.UUIDGenerator{}, station.SystemClock{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(store Store, idGen station.IDGenerator, timeSrc station.TimeSource) *Service {
	return &Service{
		store:       store,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Create validates and saves a fuel entry for owner. Machine and employee ids that do not
// resolve are ignored. The total cost is always computed from quantity and price.
func (s *Service) Create(ctx context.Context, owner string, in Input) (*station.FuelEntry, error) {
	now := s.timeSource.Now()
	entry := &station.FuelEntry{
		ID:           s.idGenerator.Generate(),
		UserID:       owner,
		FuelType:     station.FuelType(strings.TrimSpace(string(in.FuelType))),
		Quantity:     float64(in.Quantity),
		PricePerUnit: float64(in.PricePerUnit),
		Location:     strings.TrimSpace(in.Location),
		Notes:        strings.TrimSpace(in.Notes),
		Date:         now,
		Shift:        station.Shift(strings.TrimSpace(string(in.Shift))),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Date != nil && !in.Date.IsZero() {
		entry.Date = *in.Date
	}
	if in.OdometerReading != nil && *in.OdometerReading != 0 {
		odometer := int(*in.OdometerReading)
		entry.OdometerReading = &odometer
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}
	entry.Normalize()

	if id := strings.TrimSpace(in.MachineID); id != "" {
		machine, err := s.store.GetMachineByMachineID(ctx, id)
		switch {
		case err == nil:
			entry.MachineRef = &machine.ID
			entry.Machine = machine.Summary()
		case !errors.Is(err, station.ErrNotFound):
			return nil, fmt.Errorf("resolving machine: %w", err)
		}
	}
	if id := strings.TrimSpace(in.EmployeeID); id != "" {
		employee, err := s.store.GetEmployeeByEmployeeID(ctx, id)
		switch {
		case err == nil:
			entry.EmployeeRef = &employee.ID
			entry.Employee = employee.Summary()
		case !errors.Is(err, station.ErrNotFound):
			return nil, fmt.Errorf("resolving employee: %w", err)
		}
	}

	if err := s.store.CreateFuelEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("saving fuel entry: %w", err)
	}

	slog.Info("fuel entry created",
		"id", entry.ID,
		"user", owner,
		"fuelType", entry.FuelType,
		"totalCost", entry.TotalCost,
	)
	return entry, nil
}

func (s *Service) list(ctx context.Context, filter station.FuelFilter) ([]*station.FuelEntry, error) {
	entries, err := s.store.ListFuelEntries(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing fuel entries: %w", err)
	}
	station.NewReferences(s.store, s.store).FuelEntries(ctx, entries...)
	return entries, nil
}

// List returns the owner's fuel entries, newest first
func (s *Service) List(ctx context.Context, owner string) ([]*station.FuelEntry, error) {
	return s.list(ctx, station.FuelFilter{UserID: owner})
}

// ListByMachine returns the owner's entries for the machine with the given business id
func (s *Service) ListByMachine(ctx context.Context, owner, machineID string, period station.Period) ([]*station.FuelEntry, error) {
	machine, err := s.store.GetMachineByMachineID(ctx, machineID)
	if err != nil {
		return nil, fmt.Errorf("getting machine: %w", err)
	}
	return s.list(ctx, station.FuelFilter{
		UserID:     owner,
		MachineRef: machine.ID,
		Since:      period.Since(s.timeSource.Now()),
	})
}

// ListByEmployee returns the owner's entries for the employee with the given business id
func (s *Service) ListByEmployee(ctx context.Context, owner, employeeID string, period station.Period) ([]*station.FuelEntry, error) {
	employee, err := s.store.GetEmployeeByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("getting employee: %w", err)
	}
	return s.list(ctx, station.FuelFilter{
		UserID:      owner,
		EmployeeRef: employee.ID,
		Since:       period.Since(s.timeSource.Now()),
	})
}

// Delete removes one of the owner's fuel entries
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	entry, err := s.store.GetFuelEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("getting fuel entry: %w", err)
	}
	if entry.UserID != owner {
		return fmt.Errorf("fuel entry %s: %w", id, station.ErrForbidden)
	}

	if err := s.store.DeleteFuelEntry(ctx, id); err != nil {
		return fmt.Errorf("deleting fuel entry: %w", err)
	}
	slog.Info("fuel entry deleted", "id", id, "user", owner)
	return nil
}
