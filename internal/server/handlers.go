package server

import (
	"net/http"

	"github.com/zombor/fuel-station/internal/auth"
	"github.com/zombor/fuel-station/internal/station"
)

// handleRegister creates an account and signs it in
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}

	session, err := s.auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err, "User", "registering")
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Message string `json:"message"`
		*auth.Session
	}{"User registered successfully", session})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	session, err := s.auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, r, err, "User", "logging in")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.CurrentUser(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err, "User", "fetching user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleSeed inserts demo data for a fresh installation
func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	result, err := s.directory.Seed(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err, "", "seeding data")
		return
	}

	if !result.Seeded {
		writeMessage(w, http.StatusOK, "Data already exists, skipping seed operation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Data seeded successfully",
		"machines":    result.Machines,
		"employees":   result.Employees,
		"fuelEntries": result.FuelEntries,
	})
}

func (s *Server) handleListMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := s.directory.ListMachines(r.Context())
	if err != nil {
		writeError(w, r, err, "Machine", "fetching machines")
		return
	}
	if machines == nil {
		machines = []*station.Machine{}
	}
	writeJSON(w, http.StatusOK, machines)
}

func (s *Server) handleGetMachine(w http.ResponseWriter, r *http.Request) {
	machine, err := s.directory.GetMachine(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "Machine", "fetching machine")
		return
	}
	writeJSON(w, http.StatusOK, machine)
}

func (s *Server) handleCreateMachine(w http.ResponseWriter, r *http.Request) {
	var in station.MachineInput
	if !decodeJSON(w, r, &in) {
		return
	}

	machine, err := s.directory.CreateMachine(r.Context(), in)
	if err != nil {
		writeError(w, r, err, "Machine", "creating machine")
		return
	}
	writeJSON(w, http.StatusCreated, machine)
}

func (s *Server) handleUpdateMachine(w http.ResponseWriter, r *http.Request) {
	var in station.MachineInput
	if !decodeJSON(w, r, &in) {
		return
	}

	machine, err := s.directory.UpdateMachine(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err, "Machine", "updating machine")
		return
	}
	writeJSON(w, http.StatusOK, machine)
}

func (s *Server) handleDeleteMachine(w http.ResponseWriter, r *http.Request) {
	if err := s.directory.DeleteMachine(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err, "Machine", "deleting machine")
		return
	}
	writeMessage(w, http.StatusOK, "Machine removed")
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := s.directory.ListEmployees(r.Context())
	if err != nil {
		writeError(w, r, err, "Employee", "fetching employees")
		return
	}
	if employees == nil {
		employees = []*station.Employee{}
	}
	writeJSON(w, http.StatusOK, employees)
}

func (s *Server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	employee, err := s.directory.GetEmployee(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "Employee", "fetching employee")
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var in station.EmployeeInput
	if !decodeJSON(w, r, &in) {
		return
	}

	employee, err := s.directory.CreateEmployee(r.Context(), in)
	if err != nil {
		writeError(w, r, err, "Employee", "creating employee")
		return
	}
	writeJSON(w, http.StatusCreated, employee)
}

func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var in station.EmployeeInput
	if !decodeJSON(w, r, &in) {
		return
	}

	employee, err := s.directory.UpdateEmployee(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err, "Employee", "updating employee")
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (s *Server) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := s.directory.DeleteEmployee(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err, "Employee", "deleting employee")
		return
	}
	writeMessage(w, http.StatusOK, "Employee removed")
}
