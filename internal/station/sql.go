package station

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLStore implements Store on a relational database through gorm
type SQLStore struct {
	db *gorm.DB
}

// OpenSQL connects to a sqlite or postgres database and applies pending migrations
func OpenSQL(driver, dsn string) (*SQLStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	return openSQL(dialector, Migrate)
}

// openSQL connects through dialector and runs migrate. The pool is closed when migrate fails.
func openSQL(dialector gorm.Dialector, migrate func(*gorm.DB) error) (*SQLStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", dialector.Name(), err)
	}

	store := &SQLStore{db: db}
	if err := migrate(db); err != nil {
		if closeErr := store.Close(); closeErr != nil {
			slog.Warn("Failed to close database after migration error", "error", closeErr)
		}
		return nil, err
	}

	return store, nil
}

// Close releases the underlying connection pool
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps gorm errors onto the store's sentinel errors
func translate(err error, entity, key string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s %s: %w", entity, key, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &DuplicateError{Entity: entity, Key: key}
	}
	return fmt.Errorf("%s %s: %w", entity, key, err)
}

// likePattern builds a case-insensitive substring pattern with LIKE wildcards escaped
func likePattern(fragment string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(fragment)) + "%"
}

// taken reports whether a row other than id already holds value in column
func taken(tx *gorm.DB, model any, column, value, id string) (bool, error) {
	var n int64
	q := tx.Model(model).Where(column+" = ?", value)
	if id != "" {
		q = q.Where("id <> ?", id)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLStore) CreateUser(ctx context.Context, user *User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dup, err := taken(tx, &User{}, "email", user.Email, "")
		if err != nil {
			return fmt.Errorf("checking email: %w", err)
		}
		if dup {
			return &DuplicateError{Entity: "user", Key: user.Email}
		}
		return translate(tx.Create(user).Error, "user", user.Email)
	})
}

func (s *SQLStore) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "user", id)
	}
	return &user, nil
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translate(err, "user", email)
	}
	return &user, nil
}

func (s *SQLStore) CreateMachine(ctx context.Context, machine *Machine) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dup, err := taken(tx, &Machine{}, "machine_id", machine.MachineID, "")
		if err != nil {
			return fmt.Errorf("checking machine id: %w", err)
		}
		if dup {
			return &DuplicateError{Entity: "machine", Key: machine.MachineID}
		}
		return translate(tx.Create(machine).Error, "machine", machine.MachineID)
	})
}

func (s *SQLStore) UpdateMachine(ctx context.Context, machine *Machine) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current Machine
		if err := tx.First(&current, "id = ?", machine.ID).Error; err != nil {
			return translate(err, "machine", machine.ID)
		}
		dup, err := taken(tx, &Machine{}, "machine_id", machine.MachineID, machine.ID)
		if err != nil {
			return fmt.Errorf("checking machine id: %w", err)
		}
		if dup {
			return &DuplicateError{Entity: "machine", Key: machine.MachineID}
		}
		return translate(tx.Save(machine).Error, "machine", machine.MachineID)
	})
}

func (s *SQLStore) GetMachine(ctx context.Context, id string) (*Machine, error) {
	var machine Machine
	if err := s.db.WithContext(ctx).First(&machine, "id = ?", id).Error; err != nil {
		return nil, translate(err, "machine", id)
	}
	return &machine, nil
}

func (s *SQLStore) GetMachineByMachineID(ctx context.Context, machineID string) (*Machine, error) {
	var machine Machine
	if err := s.db.WithContext(ctx).First(&machine, "machine_id = ?", machineID).Error; err != nil {
		return nil, translate(err, "machine", machineID)
	}
	return &machine, nil
}

func (s *SQLStore) SearchMachinesByMachineID(ctx context.Context, fragment string) ([]*Machine, error) {
	var machines []*Machine
	err := s.db.WithContext(ctx).
		Where(`LOWER(machine_id) LIKE ? ESCAPE '\'`, likePattern(fragment)).
		Order("created_at, id").
		Find(&machines).Error
	if err != nil {
		return nil, fmt.Errorf("searching machines: %w", err)
	}
	return machines, nil
}

func (s *SQLStore) ListMachines(ctx context.Context) ([]*Machine, error) {
	machines := make([]*Machine, 0)
	if err := s.db.WithContext(ctx).Order("name").Find(&machines).Error; err != nil {
		return nil, fmt.Errorf("listing machines: %w", err)
	}
	return machines, nil
}

func (s *SQLStore) DeleteMachine(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&Machine{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "machine", id)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("machine %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) CountMachines(ctx context.Context) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Machine{}).Count(&n).Error
	return int(n), err
}

func (s *SQLStore) CreateEmployee(ctx context.Context, employee *Employee) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dup, err := taken(tx, &Employee{}, "employee_id", employee.EmployeeID, "")
		if err != nil {
			return fmt.Errorf("checking employee id: %w", err)
		}
		if dup {
			return &DuplicateError{Entity: "employee", Key: employee.EmployeeID}
		}
		return translate(tx.Create(employee).Error, "employee", employee.EmployeeID)
	})
}

func (s *SQLStore) UpdateEmployee(ctx context.Context, employee *Employee) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current Employee
		if err := tx.First(&current, "id = ?", employee.ID).Error; err != nil {
			return translate(err, "employee", employee.ID)
		}
		dup, err := taken(tx, &Employee{}, "employee_id", employee.EmployeeID, employee.ID)
		if err != nil {
			return fmt.Errorf("checking employee id: %w", err)
		}
		if dup {
			return &DuplicateError{Entity: "employee", Key: employee.EmployeeID}
		}
		return translate(tx.Save(employee).Error, "employee", employee.EmployeeID)
	})
}

func (s *SQLStore) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	var employee Employee
	if err := s.db.WithContext(ctx).First(&employee, "id = ?", id).Error; err != nil {
		return nil, translate(err, "employee", id)
	}
	return &employee, nil
}

func (s *SQLStore) GetEmployeeByEmployeeID(ctx context.Context, employeeID string) (*Employee, error) {
	var employee Employee
	if err := s.db.WithContext(ctx).First(&employee, "employee_id = ?", employeeID).Error; err != nil {
		return nil, translate(err, "employee", employeeID)
	}
	return &employee, nil
}

func (s *SQLStore) SearchEmployeesByName(ctx context.Context, fragment string) ([]*Employee, error) {
	var employees []*Employee
	err := s.db.WithContext(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(fragment)).
		Order("created_at, id").
		Find(&employees).Error
	if err != nil {
		return nil, fmt.Errorf("searching employees: %w", err)
	}
	return employees, nil
}

func (s *SQLStore) ListEmployees(ctx context.Context) ([]*Employee, error) {
	employees := make([]*Employee, 0)
	if err := s.db.WithContext(ctx).Order("name").Find(&employees).Error; err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	return employees, nil
}

func (s *SQLStore) DeleteEmployee(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&Employee{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "employee", id)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("employee %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) CountEmployees(ctx context.Context) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Employee{}).Count(&n).Error
	return int(n), err
}

func (s *SQLStore) CreateFuelEntry(ctx context.Context, entry *FuelEntry) error {
	return translate(s.db.WithContext(ctx).Create(entry).Error, "fuel entry", entry.ID)
}

func (s *SQLStore) GetFuelEntry(ctx context.Context, id string) (*FuelEntry, error) {
	var entry FuelEntry
	if err := s.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, translate(err, "fuel entry", id)
	}
	return &entry, nil
}

func (s *SQLStore) ListFuelEntries(ctx context.Context, filter FuelFilter) ([]*FuelEntry, error) {
	q := s.db.WithContext(ctx).Model(&FuelEntry{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.MachineRef != "" {
		q = q.Where("machine_ref = ?", filter.MachineRef)
	}
	if filter.EmployeeRef != "" {
		q = q.Where("employee_ref = ?", filter.EmployeeRef)
	}
	if !filter.Since.IsZero() {
		q = q.Where("date >= ?", filter.Since)
	}

	entries := make([]*FuelEntry, 0)
	if err := q.Order("date DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("listing fuel entries: %w", err)
	}
	return entries, nil
}

func (s *SQLStore) DeleteFuelEntry(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&FuelEntry{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "fuel entry", id)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("fuel entry %s: %w", id, ErrNotFound)
	}
	return nil
}

// CreateReceipt inserts the receipt and its nozzles in one transaction
func (s *SQLStore) CreateReceipt(ctx context.Context, receipt *Receipt) error {
	for i := range receipt.Nozzles {
		receipt.Nozzles[i].ReceiptID = receipt.ID
		receipt.Nozzles[i].Position = i
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return translate(tx.Create(receipt).Error, "receipt", receipt.ID)
	})
}

func preloadNozzles(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

func (s *SQLStore) GetReceipt(ctx context.Context, id string) (*Receipt, error) {
	var receipt Receipt
	err := s.db.WithContext(ctx).Preload("Nozzles", preloadNozzles).First(&receipt, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "receipt", id)
	}
	return &receipt, nil
}

func (s *SQLStore) ListReceipts(ctx context.Context, filter ReceiptFilter) ([]*Receipt, error) {
	q := s.db.WithContext(ctx).Model(&Receipt{}).Preload("Nozzles", preloadNozzles)
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.MachineRef != "" {
		q = q.Where("machine_ref = ?", filter.MachineRef)
	}
	switch {
	case filter.EmployeeRef != "" && filter.EmployeeID != "":
		q = q.Where("(employee_ref = ? OR employee_id = ?)", filter.EmployeeRef, filter.EmployeeID)
	case filter.EmployeeRef != "":
		q = q.Where("employee_ref = ?", filter.EmployeeRef)
	case filter.EmployeeID != "":
		q = q.Where("employee_id = ?", filter.EmployeeID)
	}
	if !filter.Since.IsZero() {
		q = q.Where("upload_date >= ?", filter.Since)
	}

	receipts := make([]*Receipt, 0)
	if err := q.Order("upload_date DESC, id").Find(&receipts).Error; err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return receipts, nil
}

func (s *SQLStore) DeleteReceipt(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("receipt_id = ?", id).Delete(&Nozzle{}).Error; err != nil {
			return fmt.Errorf("deleting nozzles of %s: %w", id, err)
		}
		res := tx.Delete(&Receipt{}, "id = ?", id)
		if res.Error != nil {
			return translate(res.Error, "receipt", id)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("receipt %s: %w", id, ErrNotFound)
		}
		return nil
	})
}
