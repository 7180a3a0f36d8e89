package station_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/fuel-station/internal/station"
)

type sequentialIDs struct {
	n int
}

func (s *sequentialIDs) Generate() string {
	s.n++
	return fmt.Sprintf("id-%03d", s.n)
}

// tickingClock advances one second per call so creation order is deterministic
type tickingClock struct {
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

var _ = Describe("Directory", func() {
	var (
		ctx   context.Context
		store *station.BoltStore
		dir   *station.Directory
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		store, err = station.NewBoltStore(filepath.Join(GinkgoT().TempDir(), "test.db"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(store.Close)
		dir = station.NewDirectory(store, &sequentialIDs{}, &tickingClock{now: base})
	})

	Describe("CreateMachine", func() {
		var (
			input   station.MachineInput
			machine *station.Machine
			err     error
		)

		BeforeEach(func() {
			input = station.MachineInput{Name: " Pump 1 ", MachineID: "PS001"}
		})

		JustBeforeEach(func() {
			machine, err = dir.CreateMachine(ctx, input)
		})

		It("trims the input and defaults the status", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(machine.Name).To(Equal("Pump 1"))
			Expect(machine.Status).To(Equal(station.MachineActive))
			Expect(machine.FuelTypes).To(BeEmpty())
		})

		When("required fields are missing", func() {
			BeforeEach(func() {
				input = station.MachineInput{}
			})

			It("returns a validation error", func() {
				var verr *station.ValidationError
				Expect(errors.As(err, &verr)).To(BeTrue())
				Expect(verr.Fields).To(HaveKey("name"))
				Expect(verr.Fields).To(HaveKey("machineId"))
			})
		})

		When("the fuel type is unknown", func() {
			BeforeEach(func() {
				input.FuelTypes = []station.FuelType{"Kerosene"}
			})

			It("returns a validation error", func() {
				var verr *station.ValidationError
				Expect(errors.As(err, &verr)).To(BeTrue())
				Expect(verr.Fields).To(HaveKey("fuelTypes"))
			})
		})

		When("the machineId is taken", func() {
			BeforeEach(func() {
				_, createErr := dir.CreateMachine(ctx, station.MachineInput{Name: "Other", MachineID: "PS001"})
				Expect(createErr).NotTo(HaveOccurred())
			})

			It("returns a duplicate error", func() {
				Expect(errors.Is(err, station.ErrDuplicate)).To(BeTrue())
			})
		})
	})

	Describe("UpdateMachine", func() {
		var (
			id      string
			input   station.MachineInput
			updated *station.Machine
			err     error
		)

		BeforeEach(func() {
			notes := "busy"
			m, createErr := dir.CreateMachine(ctx, station.MachineInput{
				Name: "Pump 1", MachineID: "PS001", Location: "Gate", Notes: &notes,
			})
			Expect(createErr).NotTo(HaveOccurred())
			id = m.ID
			input = station.MachineInput{}
		})

		JustBeforeEach(func() {
			updated, err = dir.UpdateMachine(ctx, id, input)
		})

		When("only some fields are set", func() {
			BeforeEach(func() {
				input.Status = station.MachineMaintenance
			})

			It("keeps the other fields", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(updated.Status).To(Equal(station.MachineMaintenance))
				Expect(updated.Location).To(Equal("Gate"))
				Expect(updated.Notes).To(Equal("busy"))
			})
		})

		When("notes are supplied empty", func() {
			BeforeEach(func() {
				empty := ""
				input.Notes = &empty
			})

			It("clears the notes", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(updated.Notes).To(BeEmpty())
			})
		})

		When("the machine does not exist", func() {
			BeforeEach(func() {
				id = "missing"
			})

			It("returns ErrNotFound", func() {
				Expect(errors.Is(err, station.ErrNotFound)).To(BeTrue())
			})
		})
	})

	Describe("CreateEmployee", func() {
		It("lowercases the email and defaults join date and status", func() {
			e, err := dir.CreateEmployee(ctx, station.EmployeeInput{
				Name: "Priya Patel", EmployeeID: "EMP002", Email: " Priya@Example.com ",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Email).To(Equal("priya@example.com"))
			Expect(e.Status).To(Equal(station.EmployeeActive))
			Expect(e.JoinDate.IsZero()).To(BeFalse())
		})

		It("rejects an unknown status", func() {
			_, err := dir.CreateEmployee(ctx, station.EmployeeInput{
				Name: "Priya Patel", EmployeeID: "EMP002", Status: "Retired",
			})
			var verr *station.ValidationError
			Expect(errors.As(err, &verr)).To(BeTrue())
		})
	})

	Describe("UpdateEmployee", func() {
		It("rejects moving to a taken employeeId", func() {
			_, err := dir.CreateEmployee(ctx, station.EmployeeInput{Name: "A", EmployeeID: "EMP001"})
			Expect(err).NotTo(HaveOccurred())
			b, err := dir.CreateEmployee(ctx, station.EmployeeInput{Name: "B", EmployeeID: "EMP002"})
			Expect(err).NotTo(HaveOccurred())

			_, err = dir.UpdateEmployee(ctx, b.ID, station.EmployeeInput{EmployeeID: "EMP001"})
			Expect(errors.Is(err, station.ErrDuplicate)).To(BeTrue())
		})
	})

	Describe("Seed", func() {
		var (
			result *station.SeedResult
			err    error
		)

		JustBeforeEach(func() {
			result, err = dir.Seed(ctx, "u1")
		})

		When("the store is empty", func() {
			It("inserts the demo data", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Seeded).To(BeTrue())
				Expect(result.Machines).To(Equal(3))
				Expect(result.Employees).To(Equal(3))
				Expect(result.FuelEntries).To(Equal(3))
			})

			It("computes the fuel totals", func() {
				entries, listErr := store.ListFuelEntries(ctx, station.FuelFilter{UserID: "u1"})
				Expect(listErr).NotTo(HaveOccurred())
				Expect(entries).To(HaveLen(3))
				Expect(entries[0].TotalCost).To(Equal(3278.07))
			})

			It("links entries to the seeded machines", func() {
				ps001, getErr := store.GetMachineByMachineID(ctx, "PS001")
				Expect(getErr).NotTo(HaveOccurred())
				entries, listErr := store.ListFuelEntries(ctx, station.FuelFilter{MachineRef: ps001.ID})
				Expect(listErr).NotTo(HaveOccurred())
				Expect(entries).To(HaveLen(2))
			})
		})

		When("machines already exist", func() {
			BeforeEach(func() {
				_, createErr := dir.CreateMachine(ctx, station.MachineInput{Name: "Mine", MachineID: "X1"})
				Expect(createErr).NotTo(HaveOccurred())
			})

			It("skips seeding", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Seeded).To(BeFalse())
				n, countErr := store.CountEmployees(ctx)
				Expect(countErr).NotTo(HaveOccurred())
				Expect(n).To(BeZero())
			})
		})
	})
})
