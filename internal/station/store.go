package station

import (
	"context"
	"sort"
	"strings"
	"time"
)

// UserStore persists user accounts
type UserStore interface {
	// CreateUser saves a new user. The email must be unused.
	CreateUser(ctx context.Context, user *User) error

	GetUser(ctx context.Context, id string) (*User, error)

	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// MachineStore persists pumps
type MachineStore interface {
	// CreateMachine saves a new machine. The MachineID must be unused.
	CreateMachine(ctx context.Context, machine *Machine) error

	// UpdateMachine replaces a machine, keeping the MachineID unique
	UpdateMachine(ctx context.Context, machine *Machine) error

	GetMachine(ctx context.Context, id string) (*Machine, error)

	// GetMachineByMachineID looks a machine up by exact business ID
	GetMachineByMachineID(ctx context.Context, machineID string) (*Machine, error)

	// SearchMachinesByMachineID returns machines whose MachineID contains fragment,
	// ignoring case, in creation order
	SearchMachinesByMachineID(ctx context.Context, fragment string) ([]*Machine, error)

	// ListMachines returns all machines sorted by name
	ListMachines(ctx context.Context) ([]*Machine, error)

	DeleteMachine(ctx context.Context, id string) error

	CountMachines(ctx context.Context) (int, error)
}

// EmployeeStore persists employees
type EmployeeStore interface {
	CreateEmployee(ctx context.Context, employee *Employee) error
	UpdateEmployee(ctx context.Context, employee *Employee) error
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	GetEmployeeByEmployeeID(ctx context.Context, employeeID string) (*Employee, error)

	// SearchEmployeesByName returns employees whose name contains fragment, ignoring case,
	// in creation order
	SearchEmployeesByName(ctx context.Context, fragment string) ([]*Employee, error)

	// ListEmployees returns all employees sorted by name
	ListEmployees(ctx context.Context) ([]*Employee, error)

	DeleteEmployee(ctx context.Context, id string) error
	CountEmployees(ctx context.Context) (int, error)
}

// FuelStore persists fuel entries
type FuelStore interface {
	CreateFuelEntry(ctx context.Context, entry *FuelEntry) error
	GetFuelEntry(ctx context.Context, id string) (*FuelEntry, error)

	// ListFuelEntries returns the matching entries, newest date first
	ListFuelEntries(ctx context.Context, filter FuelFilter) ([]*FuelEntry, error)

	DeleteFuelEntry(ctx context.Context, id string) error
}

// ReceiptStore persists receipts together with their nozzle readings
type ReceiptStore interface {
	CreateReceipt(ctx context.Context, receipt *Receipt) error
	GetReceipt(ctx context.Context, id string) (*Receipt, error)

	// ListReceipts returns the matching receipts, newest upload first
	ListReceipts(ctx context.Context, filter ReceiptFilter) ([]*Receipt, error)

	DeleteReceipt(ctx context.Context, id string) error
}

// Store is the full entity store
type Store interface {
	UserStore
	MachineStore
	EmployeeStore
	FuelStore
	ReceiptStore

	Close() error
}

// FuelFilter narrows a fuel entry listing. Empty fields do not filter.
type FuelFilter struct {
	UserID      string
	MachineRef  string
	EmployeeRef string
	Since       time.Time
}

// Matches reports whether the entry passes the filter
func (f FuelFilter) Matches(e *FuelEntry) bool {
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.MachineRef != "" && (e.MachineRef == nil || *e.MachineRef != f.MachineRef) {
		return false
	}
	if f.EmployeeRef != "" && (e.EmployeeRef == nil || *e.EmployeeRef != f.EmployeeRef) {
		return false
	}
	if !f.Since.IsZero() && e.Date.Before(f.Since) {
		return false
	}
	return true
}

// ReceiptFilter narrows a receipt listing. Empty fields do not filter. EmployeeRef and
// EmployeeID match either the resolved employee or the raw ID read from the receipt.
type ReceiptFilter struct {
	UserID      string
	MachineRef  string
	EmployeeRef string
	EmployeeID  string
	Since       time.Time
}

// Matches reports whether the receipt passes the filter
func (f ReceiptFilter) Matches(r *Receipt) bool {
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	if f.MachineRef != "" && (r.MachineRef == nil || *r.MachineRef != f.MachineRef) {
		return false
	}
	if f.EmployeeRef != "" || f.EmployeeID != "" {
		byRef := f.EmployeeRef != "" && r.EmployeeRef != nil && *r.EmployeeRef == f.EmployeeRef
		byID := f.EmployeeID != "" && r.EmployeeID == f.EmployeeID
		if !byRef && !byID {
			return false
		}
	}
	if !f.Since.IsZero() && r.UploadDate.Before(f.Since) {
		return false
	}
	return true
}

func containsFold(s, fragment string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(fragment))
}

func sortByCreation[T any](items []T, key func(T) (time.Time, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return idi < idj
	})
}
