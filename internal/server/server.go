package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/zombor/fuel-station/internal/auth"
	"github.com/zombor/fuel-station/internal/fuel"
	"github.com/zombor/fuel-station/internal/receipt"
	"github.com/zombor/fuel-station/internal/station"
)

// Server handles HTTP requests for the fuel station API
type Server struct {
	auth      *auth.Service
	directory *station.Directory
	fuel      *fuel.Service
	receipts  *receipt.Service
	mux       *http.ServeMux
}

// NewServer creates a new Server with default mux
func NewServer(authService *auth.Service, directory *station.Directory, fuelService *fuel.Service, receipts *receipt.Service) *Server {
	return NewServerWithMux(authService, directory, fuelService, receipts, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(authService *auth.Service, directory *station.Directory, fuelService *fuel.Service, receipts *receipt.Service, mux *http.ServeMux) *Server {
	s := &Server{
		auth:      authService,
		directory: directory,
		fuel:      fuelService,
		receipts:  receipts,
		mux:       mux,
	}
	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Auth
	s.mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("GET /api/auth/user", s.requireAuth(s.handleCurrentUser))
	s.mux.HandleFunc("POST /api/seed-data", s.requireAuth(s.handleSeed))

	// Machines
	s.mux.HandleFunc("GET /api/machines", s.requireAuth(s.handleListMachines))
	s.mux.HandleFunc("POST /api/machines", s.requireAuth(s.handleCreateMachine))
	s.mux.HandleFunc("GET /api/machines/{id}", s.requireAuth(s.handleGetMachine))
	s.mux.HandleFunc("PUT /api/machines/{id}", s.requireAuth(s.handleUpdateMachine))
	s.mux.HandleFunc("DELETE /api/machines/{id}", s.requireAuth(s.handleDeleteMachine))

	// Employees
	s.mux.HandleFunc("GET /api/employees", s.requireAuth(s.handleListEmployees))
	s.mux.HandleFunc("POST /api/employees", s.requireAuth(s.handleCreateEmployee))
	s.mux.HandleFunc("GET /api/employees/{id}", s.requireAuth(s.handleGetEmployee))
	s.mux.HandleFunc("PUT /api/employees/{id}", s.requireAuth(s.handleUpdateEmployee))
	s.mux.HandleFunc("DELETE /api/employees/{id}", s.requireAuth(s.handleDeleteEmployee))

	// Fuel entries
	s.mux.HandleFunc("GET /api/fuel/stats", s.requireAuth(s.handleFuelStats))
	s.mux.HandleFunc("GET /api/fuel/export", s.requireAuth(s.handleFuelExport))
	s.mux.HandleFunc("GET /api/fuel/machine/{machineId}", s.requireAuth(s.handleFuelByMachine))
	s.mux.HandleFunc("GET /api/fuel/employee/{employeeId}", s.requireAuth(s.handleFuelByEmployee))
	s.mux.HandleFunc("GET /api/fuel", s.requireAuth(s.handleListFuel))
	s.mux.HandleFunc("POST /api/fuel", s.requireAuth(s.handleCreateFuel))
	s.mux.HandleFunc("DELETE /api/fuel/{id}", s.requireAuth(s.handleDeleteFuel))

	// Receipts
	s.mux.HandleFunc("POST /api/receipts/upload", s.requireAuth(s.handleUploadReceipt))
	s.mux.HandleFunc("GET /api/receipts/stats", s.requireAuth(s.handleReceiptStats))
	s.mux.HandleFunc("GET /api/receipts/machine/{machineId}", s.requireAuth(s.handleReceiptsByMachine))
	s.mux.HandleFunc("GET /api/receipts/employee/{employeeId}", s.requireAuth(s.handleReceiptsByEmployee))
	s.mux.HandleFunc("GET /api/receipts/image/{id}", s.requireAuth(s.handleReceiptImage))
	s.mux.HandleFunc("GET /api/receipts/{id}", s.requireAuth(s.handleGetReceipt))
	s.mux.HandleFunc("DELETE /api/receipts/{id}", s.requireAuth(s.handleDeleteReceipt))
	s.mux.HandleFunc("GET /api/receipts", s.requireAuth(s.handleListReceipts))
}

// HTTPServer returns an http.Server serving the API on addr
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		// uploads wait on the OCR service
		WriteTimeout: 2 * time.Minute,
	}
}

// ServeHTTP applies CORS to every request before routing it
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func logRequestError(r *http.Request, msg string, err error) {
	slog.Error(msg, "method", r.Method, "path", r.URL.Path, "error", err)
}
