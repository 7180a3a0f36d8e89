// Package matching resolves the noisy identifiers read from receipts to stored machines and
// employees.
package matching

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/zombor/fuel-station/internal/station"
)

// MachineFinder is the machine lookup the Matcher needs
type MachineFinder interface {
	GetMachineByMachineID(ctx context.Context, machineID string) (*station.Machine, error)
	SearchMachinesByMachineID(ctx context.Context, fragment string) ([]*station.Machine, error)
}

// EmployeeFinder is the employee lookup the Matcher needs
type EmployeeFinder interface {
	SearchEmployeesByName(ctx context.Context, fragment string) ([]*station.Employee, error)
	GetEmployeeByEmployeeID(ctx context.Context, employeeID string) (*station.Employee, error)
}

// Matcher resolves recognized text to store entities. It only reads from the store.
type Matcher struct {
	machines  MachineFinder
	employees EmployeeFinder
}

// New creates a Matcher
func New(machines MachineFinder, employees EmployeeFinder) *Matcher {
	return &Matcher{machines: machines, employees: employees}
}

// MatchMachine finds the machine a pump serial number refers to. An exact machineId match wins;
// otherwise the first machine, in store order, whose machineId contains the text ignoring case.
// Returns nil when nothing matches or the lookup fails.
func (m *Matcher) MatchMachine(ctx context.Context, serial string) *station.Machine {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil
	}

	machine, err := m.machines.GetMachineByMachineID(ctx, serial)
	if err == nil {
		return machine
	}
	if !errors.Is(err, station.ErrNotFound) {
		slog.Error("machine lookup failed", "serial", serial, "error", err)
		return nil
	}

	candidates, err := m.machines.SearchMachinesByMachineID(ctx, serial)
	if err != nil {
		slog.Error("machine search failed", "serial", serial, "error", err)
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[0]
}

// MatchEmployee finds the employee a receipt names. A non-empty name is tried first as a
// case-insensitive substring of employee names; on a miss the id is looked up exactly.
// Returns nil when nothing matches or the lookup fails.
func (m *Matcher) MatchEmployee(ctx context.Context, name, employeeID string) *station.Employee {
	name = strings.TrimSpace(name)
	employeeID = strings.TrimSpace(employeeID)

	if name != "" {
		candidates, err := m.employees.SearchEmployeesByName(ctx, name)
		if err != nil {
			slog.Error("employee search failed", "name", name, "error", err)
			return nil
		}
		if len(candidates) > 0 {
			return candidates[0]
		}
	}

	if employeeID == "" {
		return nil
	}

	employee, err := m.employees.GetEmployeeByEmployeeID(ctx, employeeID)
	if err != nil {
		if !errors.Is(err, station.ErrNotFound) {
			slog.Error("employee lookup failed", "employeeId", employeeID, "error", err)
		}
		return nil
	}
	return employee
}
