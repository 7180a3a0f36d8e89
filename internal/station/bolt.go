package station

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const (
	usersBucket       = "users"
	userEmailsBucket  = "users_by_email"
	machinesBucket    = "machines"
	machineIDsBucket  = "machines_by_machine_id"
	employeesBucket   = "employees"
	employeeIDsBucket = "employees_by_employee_id"
	fuelBucket        = "fuel_entries"
	receiptsBucket    = "receipts"
)

var allBuckets = []string{
	usersBucket, userEmailsBucket,
	machinesBucket, machineIDsBucket,
	employeesBucket, employeeIDsBucket,
	fuelBucket, receiptsBucket,
}

// BoltStore implements Store using BoltDB. Unique business keys are kept in index buckets
// that are checked and written inside the same write transaction as the record.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens the database file and creates all buckets
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (b *BoltStore) Close() error {
	return b.db.Close()
}

func putJSON(bucket *bbolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	return bucket.Put([]byte(key), data)
}

func getJSON(bucket *bbolt.Bucket, kind, key string, v any) error {
	data := bucket.Get([]byte(key))
	if data == nil {
		return fmt.Errorf("%s %s: %w", kind, key, ErrNotFound)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshaling %s %s: %w", kind, key, err)
	}
	return nil
}

func listJSON[T any](db *bbolt.DB, bucketName string, keep func(*T) bool) ([]*T, error) {
	items := make([]*T, 0)
	err := db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, v []byte) error {
			item := new(T)
			if err := json.Unmarshal(v, item); err != nil {
				return fmt.Errorf("unmarshaling %s: %w", k, err)
			}
			if keep == nil || keep(item) {
				items = append(items, item)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func countKeys(db *bbolt.DB, bucketName string) (int, error) {
	var n int
	err := db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(bucketName)).Stats().KeyN
		return nil
	})
	return n, err
}

// userRecord keeps the password hash, which is hidden from the public JSON of User
type userRecord struct {
	*User
	PasswordHash string `json:"passwordHash"`
}

// CreateUser saves a new user
func (b *BoltStore) CreateUser(ctx context.Context, user *User) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		emails := tx.Bucket([]byte(userEmailsBucket))
		if emails.Get([]byte(user.Email)) != nil {
			return &DuplicateError{Entity: "user", Key: user.Email}
		}
		if err := emails.Put([]byte(user.Email), []byte(user.ID)); err != nil {
			return err
		}
		return putJSON(tx.Bucket([]byte(usersBucket)), user.ID, userRecord{User: user, PasswordHash: user.PasswordHash})
	})
}

// GetUser retrieves a user by ID
func (b *BoltStore) GetUser(ctx context.Context, id string) (*User, error) {
	rec := userRecord{User: &User{}}
	err := b.db.View(func(tx *bbolt.Tx) error {
		return getJSON(tx.Bucket([]byte(usersBucket)), "user", id, &rec)
	})
	if err != nil {
		return nil, err
	}
	rec.User.PasswordHash = rec.PasswordHash
	return rec.User, nil
}

// GetUserByEmail retrieves a user by email
func (b *BoltStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var id string
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(userEmailsBucket)).Get([]byte(email))
		if v == nil {
			return fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		id = string(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b.GetUser(ctx, id)
}

// CreateMachine saves a new machine
func (b *BoltStore) CreateMachine(ctx context.Context, machine *Machine) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		ids := tx.Bucket([]byte(machineIDsBucket))
		if ids.Get([]byte(machine.MachineID)) != nil {
			return &DuplicateError{Entity: "machine", Key: machine.MachineID}
		}
		if err := ids.Put([]byte(machine.MachineID), []byte(machine.ID)); err != nil {
			return err
		}
		return putJSON(tx.Bucket([]byte(machinesBucket)), machine.ID, machine)
	})
}

// UpdateMachine replaces an existing machine
func (b *BoltStore) UpdateMachine(ctx context.Context, machine *Machine) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		machines := tx.Bucket([]byte(machinesBucket))
		var current Machine
		if err := getJSON(machines, "machine", machine.ID, &current); err != nil {
			return err
		}
		ids := tx.Bucket([]byte(machineIDsBucket))
		if err := reindex(ids, "machine", current.MachineID, machine.MachineID, machine.ID); err != nil {
			return err
		}
		return putJSON(machines, machine.ID, machine)
	})
}

// reindex moves a unique key from old to new, failing if new is held by another record
func reindex(index *bbolt.Bucket, entity, oldKey, newKey, id string) error {
	if oldKey == newKey {
		return nil
	}
	if owner := index.Get([]byte(newKey)); owner != nil && string(owner) != id {
		return &DuplicateError{Entity: entity, Key: newKey}
	}
	if err := index.Delete([]byte(oldKey)); err != nil {
		return err
	}
	return index.Put([]byte(newKey), []byte(id))
}

// GetMachine retrieves a machine by ID
func (b *BoltStore) GetMachine(ctx context.Context, id string) (*Machine, error) {
	var machine Machine
	err := b.db.View(func(tx *bbolt.Tx) error {
		return getJSON(tx.Bucket([]byte(machinesBucket)), "machine", id, &machine)
	})
	if err != nil {
		return nil, err
	}
	return &machine, nil
}

// GetMachineByMachineID retrieves a machine by its exact business ID
func (b *BoltStore) GetMachineByMachineID(ctx context.Context, machineID string) (*Machine, error) {
	var machine Machine
	err := b.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket([]byte(machineIDsBucket)).Get([]byte(machineID))
		if id == nil {
			return fmt.Errorf("machine %s: %w", machineID, ErrNotFound)
		}
		return getJSON(tx.Bucket([]byte(machinesBucket)), "machine", string(id), &machine)
	})
	if err != nil {
		return nil, err
	}
	return &machine, nil
}

// SearchMachinesByMachineID returns machines whose business ID contains fragment
func (b *BoltStore) SearchMachinesByMachineID(ctx context.Context, fragment string) ([]*Machine, error) {
	machines, err := listJSON(b.db, machinesBucket, func(m *Machine) bool {
		return containsFold(m.MachineID, fragment)
	})
	if err != nil {
		return nil, fmt.Errorf("searching machines: %w", err)
	}
	sortByCreation(machines, func(m *Machine) (time.Time, string) { return m.CreatedAt, m.ID })
	return machines, nil
}

// ListMachines returns all machines sorted by name
func (b *BoltStore) ListMachines(ctx context.Context) ([]*Machine, error) {
	machines, err := listJSON[Machine](b.db, machinesBucket, nil)
	if err != nil {
		return nil, fmt.Errorf("listing machines: %w", err)
	}
	sort.SliceStable(machines, func(i, j int) bool { return machines[i].Name < machines[j].Name })
	return machines, nil
}

// DeleteMachine removes a machine and its index entry
func (b *BoltStore) DeleteMachine(ctx context.Context, id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		machines := tx.Bucket([]byte(machinesBucket))
		var machine Machine
		if err := getJSON(machines, "machine", id, &machine); err != nil {
			return err
		}
		if err := tx.Bucket([]byte(machineIDsBucket)).Delete([]byte(machine.MachineID)); err != nil {
			return err
		}
		return machines.Delete([]byte(id))
	})
}

func (b *BoltStore) CountMachines(ctx context.Context) (int, error) {
	return countKeys(b.db, machinesBucket)
}

// CreateEmployee saves a new employee
func (b *BoltStore) CreateEmployee(ctx context.Context, employee *Employee) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		ids := tx.Bucket([]byte(employeeIDsBucket))
		if ids.Get([]byte(employee.EmployeeID)) != nil {
			return &DuplicateError{Entity: "employee", Key: employee.EmployeeID}
		}
		if err := ids.Put([]byte(employee.EmployeeID), []byte(employee.ID)); err != nil {
			return err
		}
		return putJSON(tx.Bucket([]byte(employeesBucket)), employee.ID, employee)
	})
}

// UpdateEmployee replaces an existing employee
func (b *BoltStore) UpdateEmployee(ctx context.Context, employee *Employee) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		employees := tx.Bucket([]byte(employeesBucket))
		var current Employee
		if err := getJSON(employees, "employee", employee.ID, &current); err != nil {
			return err
		}
		ids := tx.Bucket([]byte(employeeIDsBucket))
		if err := reindex(ids, "employee", current.EmployeeID, employee.EmployeeID, employee.ID); err != nil {
			return err
		}
		return putJSON(employees, employee.ID, employee)
	})
}

func (b *BoltStore) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	var employee Employee
	err := b.db.View(func(tx *bbolt.Tx) error {
		return getJSON(tx.Bucket([]byte(employeesBucket)), "employee", id, &employee)
	})
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

func (b *BoltStore) GetEmployeeByEmployeeID(ctx context.Context, employeeID string) (*Employee, error) {
	var employee Employee
	err := b.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket([]byte(employeeIDsBucket)).Get([]byte(employeeID))
		if id == nil {
			return fmt.Errorf("employee %s: %w", employeeID, ErrNotFound)
		}
		return getJSON(tx.Bucket([]byte(employeesBucket)), "employee", string(id), &employee)
	})
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

func (b *BoltStore) SearchEmployeesByName(ctx context.Context, fragment string) ([]*Employee, error) {
	employees, err := listJSON(b.db, employeesBucket, func(e *Employee) bool {
		return containsFold(e.Name, fragment)
	})
	if err != nil {
		return nil, fmt.Errorf("searching employees: %w", err)
	}
	sortByCreation(employees, func(e *Employee) (time.Time, string) { return e.CreatedAt, e.ID })
	return employees, nil
}

func (b *BoltStore) ListEmployees(ctx context.Context) ([]*Employee, error) {
	employees, err := listJSON[Employee](b.db, employeesBucket, nil)
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	sort.SliceStable(employees, func(i, j int) bool { return employees[i].Name < employees[j].Name })
	return employees, nil
}

func (b *BoltStore) DeleteEmployee(ctx context.Context, id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		employees := tx.Bucket([]byte(employeesBucket))
		var employee Employee
		if err := getJSON(employees, "employee", id, &employee); err != nil {
			return err
		}
		if err := tx.Bucket([]byte(employeeIDsBucket)).Delete([]byte(employee.EmployeeID)); err != nil {
			return err
		}
		return employees.Delete([]byte(id))
	})
}

func (b *BoltStore) CountEmployees(ctx context.Context) (int, error) {
	return countKeys(b.db, employeesBucket)
}

// CreateFuelEntry saves a fuel entry
func (b *BoltStore) CreateFuelEntry(ctx context.Context, entry *FuelEntry) error {
	stored := *entry
	stored.Machine, stored.Employee = nil, nil
	return b.db.Update(func(tx *bbolt.Tx) error {
		return putJSON(tx.Bucket([]byte(fuelBucket)), entry.ID, &stored)
	})
}

func (b *BoltStore) GetFuelEntry(ctx context.Context, id string) (*FuelEntry, error) {
	var entry FuelEntry
	err := b.db.View(func(tx *bbolt.Tx) error {
		return getJSON(tx.Bucket([]byte(fuelBucket)), "fuel entry", id, &entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListFuelEntries returns matching entries, newest first
func (b *BoltStore) ListFuelEntries(ctx context.Context, filter FuelFilter) ([]*FuelEntry, error) {
	entries, err := listJSON(b.db, fuelBucket, filter.Matches)
	if err != nil {
		return nil, fmt.Errorf("listing fuel entries: %w", err)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date.After(entries[j].Date) })
	return entries, nil
}

func (b *BoltStore) DeleteFuelEntry(ctx context.Context, id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(fuelBucket))
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("fuel entry %s: %w", id, ErrNotFound)
		}
		return bucket.Delete([]byte(id))
	})
}

// CreateReceipt saves a receipt with its nozzles in one write
func (b *BoltStore) CreateReceipt(ctx context.Context, receipt *Receipt) error {
	stored := *receipt
	stored.Machine, stored.Employee = nil, nil
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(receiptsBucket))
		if bucket.Get([]byte(receipt.ID)) != nil {
			return &DuplicateError{Entity: "receipt", Key: receipt.ID}
		}
		return putJSON(bucket, receipt.ID, &stored)
	})
}

func (b *BoltStore) GetReceipt(ctx context.Context, id string) (*Receipt, error) {
	var receipt Receipt
	err := b.db.View(func(tx *bbolt.Tx) error {
		return getJSON(tx.Bucket([]byte(receiptsBucket)), "receipt", id, &receipt)
	})
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ListReceipts returns matching receipts, newest upload first
func (b *BoltStore) ListReceipts(ctx context.Context, filter ReceiptFilter) ([]*Receipt, error) {
	receipts, err := listJSON(b.db, receiptsBucket, filter.Matches)
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	sort.SliceStable(receipts, func(i, j int) bool {
		if receipts[i].UploadDate.Equal(receipts[j].UploadDate) {
			return strings.Compare(receipts[i].ID, receipts[j].ID) < 0
		}
		return receipts[i].UploadDate.After(receipts[j].UploadDate)
	})
	return receipts, nil
}

// DeleteReceipt removes a receipt from the database
func (b *BoltStore) DeleteReceipt(ctx context.Context, id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(receiptsBucket))
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("receipt %s: %w", id, ErrNotFound)
		}
		return bucket.Delete([]byte(id))
	})
}
