package station

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FuelType is a kind of fuel dispensed at the station
type FuelType string

const (
	FuelPetrol   FuelType = "Petrol"
	FuelDiesel   FuelType = "Diesel"
	FuelCNG      FuelType = "CNG"
	FuelElectric FuelType = "Electric"
)

// Valid reports whether f is a known fuel type
func (f FuelType) Valid() bool {
	switch f {
	case FuelPetrol, FuelDiesel, FuelCNG, FuelElectric:
		return true
	}
	return false
}

// Shift is the working shift a fuel entry was recorded in
type Shift string

const (
	ShiftMorning   Shift = "Morning"
	ShiftAfternoon Shift = "Afternoon"
	ShiftEvening   Shift = "Evening"
	ShiftNight     Shift = "Night"
)

// Valid reports whether s is a known shift
func (s Shift) Valid() bool {
	switch s {
	case ShiftMorning, ShiftAfternoon, ShiftEvening, ShiftNight:
		return true
	}
	return false
}

// MachineStatus is the operational state of a pump
type MachineStatus string

const (
	MachineActive      MachineStatus = "Active"
	MachineMaintenance MachineStatus = "Maintenance"
	MachineInactive    MachineStatus = "Inactive"
)

func (s MachineStatus) Valid() bool {
	switch s {
	case MachineActive, MachineMaintenance, MachineInactive:
		return true
	}
	return false
}

// EmployeeStatus is the employment state of an employee
type EmployeeStatus string

const (
	EmployeeActive     EmployeeStatus = "Active"
	EmployeeOnLeave    EmployeeStatus = "On Leave"
	EmployeeTerminated EmployeeStatus = "Terminated"
)

func (s EmployeeStatus) Valid() bool {
	switch s {
	case EmployeeActive, EmployeeOnLeave, EmployeeTerminated:
		return true
	}
	return false
}

// User is an account that owns fuel entries and receipts
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Machine is a fuel pump. MachineID is the business identifier printed on receipts.
type Machine struct {
	ID              string        `json:"id" gorm:"primaryKey;size:36"`
	Name            string        `json:"name" gorm:"not null"`
	MachineID       string        `json:"machineId" gorm:"uniqueIndex;not null"`
	Location        string        `json:"location"`
	FuelTypes       []FuelType    `json:"fuelTypes" gorm:"type:text;serializer:json"`
	Status          MachineStatus `json:"status"`
	LastMaintenance *time.Time    `json:"lastMaintenance,omitempty"`
	Notes           string        `json:"notes"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// Summary returns the fields embedded in fuel entries and receipts
func (m *Machine) Summary() *MachineSummary {
	return &MachineSummary{ID: m.ID, Name: m.Name, MachineID: m.MachineID, Location: m.Location}
}

// Employee is a station employee. EmployeeID is the business identifier.
type Employee struct {
	ID            string         `json:"id" gorm:"primaryKey;size:36"`
	Name          string         `json:"name" gorm:"not null"`
	EmployeeID    string         `json:"employeeId" gorm:"uniqueIndex;not null"`
	Position      string         `json:"position"`
	ContactNumber string         `json:"contactNumber"`
	Email         string         `json:"email"`
	Status        EmployeeStatus `json:"status"`
	JoinDate      time.Time      `json:"joinDate"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func (e *Employee) Summary() *EmployeeSummary {
	return &EmployeeSummary{ID: e.ID, Name: e.Name, EmployeeID: e.EmployeeID, Position: e.Position}
}

// MachineSummary is a read-side view of a referenced machine
type MachineSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MachineID string `json:"machineId"`
	Location  string `json:"location"`
}

// EmployeeSummary is a read-side view of a referenced employee
type EmployeeSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	EmployeeID string `json:"employeeId"`
	Position   string `json:"position"`
}

// FuelEntry records a single fuel sale owned by a user
type FuelEntry struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	UserID          string    `json:"user" gorm:"index;size:36;not null"`
	MachineRef      *string   `json:"machineRef,omitempty" gorm:"index;size:36"`
	EmployeeRef     *string   `json:"employeeRef,omitempty" gorm:"index;size:36"`
	Date            time.Time `json:"date" gorm:"index"`
	FuelType        FuelType  `json:"fuelType" gorm:"not null"`
	Quantity        float64   `json:"quantity"`
	PricePerUnit    float64   `json:"pricePerUnit"`
	TotalCost       float64   `json:"totalCost"`
	OdometerReading *int      `json:"odometerReading,omitempty"`
	Location        string    `json:"location,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	Shift           Shift     `json:"shift"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	Machine  *MachineSummary  `json:"machine,omitempty" gorm:"-"`
	Employee *EmployeeSummary `json:"employee,omitempty" gorm:"-"`
}

// CostOf returns quantity × price rounded to two decimal places
func CostOf(quantity, pricePerUnit float64) float64 {
	return decimal.NewFromFloat(quantity).
		Mul(decimal.NewFromFloat(pricePerUnit)).
		Round(2).
		InexactFloat64()
}

// Normalize applies defaults and recomputes TotalCost. Any caller-supplied total is discarded.
func (f *FuelEntry) Normalize() {
	if f.Shift == "" {
		f.Shift = ShiftMorning
	}
	f.TotalCost = CostOf(f.Quantity, f.PricePerUnit)
}

// positive reports whether v is a finite number above zero
func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// Validate checks the fields required for a fuel entry
func (f *FuelEntry) Validate() error {
	verr := NewValidationError("Missing required fields")
	switch {
	case f.FuelType == "":
		verr.Add("fuelType", "Fuel type is required")
	case !f.FuelType.Valid():
		verr.Add("fuelType", "Fuel type must be one of Petrol, Diesel, CNG, Electric")
	}
	if !positive(f.Quantity) {
		verr.Add("quantity", "Quantity is required and must be greater than zero")
	}
	if !positive(f.PricePerUnit) {
		verr.Add("pricePerUnit", "Price per unit is required and must be greater than zero")
	}
	if f.Shift != "" && !f.Shift.Valid() {
		verr.Add("shift", "Shift must be one of Morning, Afternoon, Evening, Night")
	}
	return verr.OrNil()
}

// Nozzle is one pump channel's sale figures read from a receipt
type Nozzle struct {
	ID         uint                `json:"-" gorm:"primaryKey"`
	ReceiptID  string              `json:"-" gorm:"index;size:36;not null"`
	Position   int                 `json:"-"`
	Number     string              `json:"nozzleNumber" gorm:"not null"`
	AValue     decimal.NullDecimal `json:"aValue" gorm:"type:numeric"`
	VValue     decimal.NullDecimal `json:"vValue" gorm:"type:numeric"`
	TotalSales decimal.NullDecimal `json:"totalSales" gorm:"type:numeric"`
}

// ParseReading converts recognized text into a decimal. Text that is not a number yields an
// invalid (null) value.
func ParseReading(text string) decimal.NullDecimal {
	text = strings.TrimSpace(strings.ReplaceAll(text, ",", ""))
	if text == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// Receipt is a pump receipt recovered from an uploaded image
type Receipt struct {
	ID               string    `json:"id" gorm:"primaryKey;size:36"`
	UserID           string    `json:"user" gorm:"index;size:36;not null"`
	MachineRef       *string   `json:"machineRef,omitempty" gorm:"index;size:36"`
	EmployeeRef      *string   `json:"employeeRef,omitempty" gorm:"index;size:36"`
	EmployeeName     string    `json:"employeeName"`
	EmployeeID       string    `json:"employeeId" gorm:"index"`
	ShiftTime        string    `json:"shiftTime"`
	PrintDate        string    `json:"printDate"`
	PumpSerialNumber string    `json:"pumpSerialNumber"`
	Nozzles          []Nozzle  `json:"nozzles" gorm:"foreignKey:ReceiptID;constraint:OnDelete:CASCADE"`
	ImagePath        string    `json:"imagePath"`
	OCRText          string    `json:"ocrText" gorm:"type:text"`
	Processed        bool      `json:"processed"`
	ProcessingErrors string    `json:"processingErrors,omitempty" gorm:"type:text"`
	UploadDate       time.Time `json:"uploadDate" gorm:"index"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`

	Machine  *MachineSummary  `json:"machine,omitempty" gorm:"-"`
	Employee *EmployeeSummary `json:"employee,omitempty" gorm:"-"`
}

// TotalSales sums the readable totalSales values across all nozzles
func (r *Receipt) TotalSales() decimal.Decimal {
	total := decimal.Zero
	for _, n := range r.Nozzles {
		if n.TotalSales.Valid {
			total = total.Add(n.TotalSales.Decimal)
		}
	}
	return total
}
