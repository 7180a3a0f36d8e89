package station

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DirectoryStore is what the Directory needs from the entity store
type DirectoryStore interface {
	MachineStore
	EmployeeStore
	FuelStore
}

// MachineInput is a create or update request for a machine
type MachineInput struct {
	Name            string        `json:"name"`
	MachineID       string        `json:"machineId"`
	Location        string        `json:"location"`
	FuelTypes       []FuelType    `json:"fuelTypes"`
	Status          MachineStatus `json:"status"`
	LastMaintenance *time.Time    `json:"lastMaintenance"`
	Notes           *string       `json:"notes"`
}

func (in *MachineInput) trim() {
	in.Name = strings.TrimSpace(in.Name)
	in.MachineID = strings.TrimSpace(in.MachineID)
	in.Location = strings.TrimSpace(in.Location)
}

func (in *MachineInput) validate(requireKeys bool) error {
	verr := NewValidationError("Invalid machine")
	if requireKeys && in.Name == "" {
		verr.Add("name", "Name is required")
	}
	if requireKeys && in.MachineID == "" {
		verr.Add("machineId", "Machine ID is required")
	}
	for _, f := range in.FuelTypes {
		if !f.Valid() {
			verr.Add("fuelTypes", fmt.Sprintf("Unknown fuel type %q", f))
		}
	}
	if in.Status != "" && !in.Status.Valid() {
		verr.Add("status", "Status must be one of Active, Maintenance, Inactive")
	}
	return verr.OrNil()
}

// EmployeeInput is a create or update request for an employee
type EmployeeInput struct {
	Name          string         `json:"name"`
	EmployeeID    string         `json:"employeeId"`
	Position      string         `json:"position"`
	ContactNumber string         `json:"contactNumber"`
	Email         string         `json:"email"`
	Status        EmployeeStatus `json:"status"`
	JoinDate      *time.Time     `json:"joinDate"`
}

func (in *EmployeeInput) trim() {
	in.Name = strings.TrimSpace(in.Name)
	in.EmployeeID = strings.TrimSpace(in.EmployeeID)
	in.Position = strings.TrimSpace(in.Position)
	in.ContactNumber = strings.TrimSpace(in.ContactNumber)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

func (in *EmployeeInput) validate(requireKeys bool) error {
	verr := NewValidationError("Invalid employee")
	if requireKeys && in.Name == "" {
		verr.Add("name", "Name is required")
	}
	if requireKeys && in.EmployeeID == "" {
		verr.Add("employeeId", "Employee ID is required")
	}
	if in.Status != "" && !in.Status.Valid() {
		verr.Add("status", "Status must be one of Active, On Leave, Terminated")
	}
	return verr.OrNil()
}

// Directory manages the shared reference data: machines and employees
type Directory struct {
	store DirectoryStore
	ids   IDGenerator
	clock TimeSource
}

// NewDirectory creates a Directory
func NewDirectory(store DirectoryStore, ids IDGenerator, clock TimeSource) *Directory {
	return &Directory{store: store, ids: ids, clock: clock}
}

func (d *Directory) ListMachines(ctx context.Context) ([]*Machine, error) {
	return d.store.ListMachines(ctx)
}

func (d *Directory) GetMachine(ctx context.Context, id string) (*Machine, error) {
	return d.store.GetMachine(ctx, id)
}

// CreateMachine validates and stores a new machine
func (d *Directory) CreateMachine(ctx context.Context, in MachineInput) (*Machine, error) {
	in.trim()
	if err := in.validate(true); err != nil {
		return nil, err
	}

	now := d.clock.Now()
	machine := &Machine{
		ID:              d.ids.Generate(),
		Name:            in.Name,
		MachineID:       in.MachineID,
		Location:        in.Location,
		FuelTypes:       in.FuelTypes,
		Status:          in.Status,
		LastMaintenance: in.LastMaintenance,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if machine.Status == "" {
		machine.Status = MachineActive
	}
	if machine.FuelTypes == nil {
		machine.FuelTypes = []FuelType{}
	}
	if in.Notes != nil {
		machine.Notes = *in.Notes
	}

	if err := d.store.CreateMachine(ctx, machine); err != nil {
		return nil, err
	}
	slog.Info("machine created", "id", machine.ID, "machineId", machine.MachineID)
	return machine, nil
}

// UpdateMachine overwrites the fields that are set in the input
func (d *Directory) UpdateMachine(ctx context.Context, id string, in MachineInput) (*Machine, error) {
	in.trim()
	if err := in.validate(false); err != nil {
		return nil, err
	}

	machine, err := d.store.GetMachine(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		machine.Name = in.Name
	}
	if in.MachineID != "" {
		machine.MachineID = in.MachineID
	}
	if in.Location != "" {
		machine.Location = in.Location
	}
	if in.FuelTypes != nil {
		machine.FuelTypes = in.FuelTypes
	}
	if in.Status != "" {
		machine.Status = in.Status
	}
	if in.LastMaintenance != nil {
		machine.LastMaintenance = in.LastMaintenance
	}
	if in.Notes != nil {
		machine.Notes = *in.Notes
	}
	machine.UpdatedAt = d.clock.Now()

	if err := d.store.UpdateMachine(ctx, machine); err != nil {
		return nil, err
	}
	return machine, nil
}

// DeleteMachine removes a machine. Fuel entries and receipts keep their dangling reference.
func (d *Directory) DeleteMachine(ctx context.Context, id string) error {
	return d.store.DeleteMachine(ctx, id)
}

func (d *Directory) ListEmployees(ctx context.Context) ([]*Employee, error) {
	return d.store.ListEmployees(ctx)
}

func (d *Directory) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	return d.store.GetEmployee(ctx, id)
}

// CreateEmployee validates and stores a new employee
func (d *Directory) CreateEmployee(ctx context.Context, in EmployeeInput) (*Employee, error) {
	in.trim()
	if err := in.validate(true); err != nil {
		return nil, err
	}

	now := d.clock.Now()
	employee := &Employee{
		ID:            d.ids.Generate(),
		Name:          in.Name,
		EmployeeID:    in.EmployeeID,
		Position:      in.Position,
		ContactNumber: in.ContactNumber,
		Email:         in.Email,
		Status:        in.Status,
		JoinDate:      now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if employee.Status == "" {
		employee.Status = EmployeeActive
	}
	if in.JoinDate != nil {
		employee.JoinDate = *in.JoinDate
	}

	if err := d.store.CreateEmployee(ctx, employee); err != nil {
		return nil, err
	}
	slog.Info("employee created", "id", employee.ID, "employeeId", employee.EmployeeID)
	return employee, nil
}

// UpdateEmployee overwrites the fields that are set in the input
func (d *Directory) UpdateEmployee(ctx context.Context, id string, in EmployeeInput) (*Employee, error) {
	in.trim()
	if err := in.validate(false); err != nil {
		return nil, err
	}

	employee, err := d.store.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		employee.Name = in.Name
	}
	if in.EmployeeID != "" {
		employee.EmployeeID = in.EmployeeID
	}
	if in.Position != "" {
		employee.Position = in.Position
	}
	if in.ContactNumber != "" {
		employee.ContactNumber = in.ContactNumber
	}
	if in.Email != "" {
		employee.Email = in.Email
	}
	if in.Status != "" {
		employee.Status = in.Status
	}
	if in.JoinDate != nil {
		employee.JoinDate = *in.JoinDate
	}
	employee.UpdatedAt = d.clock.Now()

	if err := d.store.UpdateEmployee(ctx, employee); err != nil {
		return nil, err
	}
	return employee, nil
}

// DeleteEmployee removes an employee. Fuel entries and receipts keep their dangling reference.
func (d *Directory) DeleteEmployee(ctx context.Context, id string) error {
	return d.store.DeleteEmployee(ctx, id)
}
