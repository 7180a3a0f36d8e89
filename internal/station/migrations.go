package station

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

var migrations = []*gormigrate.Migration{
	{
		ID: "20250501_create_tables",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&User{}, &Machine{}, &Employee{}, &FuelEntry{}, &Receipt{}, &Nozzle{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&Nozzle{}, &Receipt{}, &FuelEntry{}, &Employee{}, &Machine{}, &User{})
		},
	},
}

// Migrate brings the schema up to date
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrations)
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}
