package station_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/fuel-station/internal/station"
)

var _ = Describe("References", func() {
	var (
		ctx   context.Context
		store *station.BoltStore
		refs  *station.References
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		store, err = station.NewBoltStore(filepath.Join(GinkgoT().TempDir(), "test.db"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(store.Close)

		Expect(store.CreateMachine(ctx, machineFixture("m1", "PS001", base))).To(Succeed())
		Expect(store.CreateEmployee(ctx, employeeFixture("e1", "EMP001", "Rahul Sharma", base))).To(Succeed())
		refs = station.NewReferences(store, store)
	})

	It("embeds the referenced machine and employee", func() {
		m, e := "m1", "e1"
		entry := &station.FuelEntry{MachineRef: &m, EmployeeRef: &e}
		refs.FuelEntries(ctx, entry)
		Expect(entry.Machine.MachineID).To(Equal("PS001"))
		Expect(entry.Employee.Name).To(Equal("Rahul Sharma"))
	})

	It("omits references that no longer resolve", func() {
		m := "m1"
		Expect(store.DeleteMachine(ctx, m)).To(Succeed())
		receipt := &station.Receipt{MachineRef: &m}
		refs.Receipts(ctx, receipt)
		Expect(receipt.Machine).To(BeNil())
		Expect(receipt.Employee).To(BeNil())
	})
})
