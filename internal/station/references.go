package station

import (
	"context"
	"errors"
	"log/slog"
)

// References fills in machine and employee summaries on listings. Lookups are cached for the
// lifetime of the value, so one References should serve a single request.
type References struct {
	machines  MachineStore
	employees EmployeeStore

	machineCache  map[string]*MachineSummary
	employeeCache map[string]*EmployeeSummary
}

// NewReferences creates a References over the given stores
func NewReferences(machines MachineStore, employees EmployeeStore) *References {
	return &References{
		machines:      machines,
		employees:     employees,
		machineCache:  make(map[string]*MachineSummary),
		employeeCache: make(map[string]*EmployeeSummary),
	}
}

// Machine returns the summary for a machine reference. Dangling references yield nil.
func (r *References) Machine(ctx context.Context, ref *string) *MachineSummary {
	if ref == nil || *ref == "" {
		return nil
	}
	if s, ok := r.machineCache[*ref]; ok {
		return s
	}
	var summary *MachineSummary
	m, err := r.machines.GetMachine(ctx, *ref)
	switch {
	case err == nil:
		summary = m.Summary()
	case !errors.Is(err, ErrNotFound):
		slog.Warn("resolving machine reference", "ref", *ref, "error", err)
	}
	r.machineCache[*ref] = summary
	return summary
}

// Employee returns the summary for an employee reference. Dangling references yield nil.
func (r *References) Employee(ctx context.Context, ref *string) *EmployeeSummary {
	if ref == nil || *ref == "" {
		return nil
	}
	if s, ok := r.employeeCache[*ref]; ok {
		return s
	}
	var summary *EmployeeSummary
	e, err := r.employees.GetEmployee(ctx, *ref)
	switch {
	case err == nil:
		summary = e.Summary()
	case !errors.Is(err, ErrNotFound):
		slog.Warn("resolving employee reference", "ref", *ref, "error", err)
	}
	r.employeeCache[*ref] = summary
	return summary
}

// FuelEntries populates the summaries of each entry
func (r *References) FuelEntries(ctx context.Context, entries ...*FuelEntry) {
	for _, e := range entries {
		e.Machine = r.Machine(ctx, e.MachineRef)
		e.Employee = r.Employee(ctx, e.EmployeeRef)
	}
}

// Receipts populates the summaries of each receipt
func (r *References) Receipts(ctx context.Context, receipts ...*Receipt) {
	for _, rc := range receipts {
		rc.Machine = r.Machine(ctx, rc.MachineRef)
		rc.Employee = r.Employee(ctx, rc.EmployeeRef)
	}
}
