package station

import (
	"errors"
	"path/filepath"

	"github.com/glebarez/sqlite"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("openSQL", func() {
	When("the migration fails", func() {
		var (
			migrated *gorm.DB
			store    *SQLStore
			err      error
		)

		BeforeEach(func() {
			dsn := filepath.Join(GinkgoT().TempDir(), "test.sqlite")
			store, err = openSQL(sqlite.Open(dsn), func(db *gorm.DB) error {
				migrated = db
				return errors.New("schema conflict")
			})
		})

		It("returns the error", func() {
			Expect(err).To(MatchError("schema conflict"))
			Expect(store).To(BeNil())
		})

		It("closes the connection pool", func() {
			sqlDB, dbErr := migrated.DB()
			Expect(dbErr).NotTo(HaveOccurred())
			Expect(sqlDB.Ping()).To(MatchError(ContainSubstring("database is closed")))
		})
	})
})
