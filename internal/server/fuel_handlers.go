package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/zombor/fuel-station/internal/fuel"
	"github.com/zombor/fuel-station/internal/station"
)

func writeEntries(w http.ResponseWriter, entries []*station.FuelEntry) {
	if entries == nil {
		entries = []*station.FuelEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleListFuel(w http.ResponseWriter, r *http.Request) {
	entries, err := s.fuel.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err, "Fuel entry", "fetching fuel data")
		return
	}
	writeEntries(w, entries)
}

func (s *Server) handleFuelByMachine(w http.ResponseWriter, r *http.Request) {
	p, ok := period(w, r)
	if !ok {
		return
	}
	entries, err := s.fuel.ListByMachine(r.Context(), userID(r), r.PathValue("machineId"), p)
	if err != nil {
		writeError(w, r, err, "Machine", "fetching fuel data")
		return
	}
	writeEntries(w, entries)
}

func (s *Server) handleFuelByEmployee(w http.ResponseWriter, r *http.Request) {
	p, ok := period(w, r)
	if !ok {
		return
	}
	entries, err := s.fuel.ListByEmployee(r.Context(), userID(r), r.PathValue("employeeId"), p)
	if err != nil {
		writeError(w, r, err, "Employee", "fetching fuel data")
		return
	}
	writeEntries(w, entries)
}

func (s *Server) handleFuelStats(w http.ResponseWriter, r *http.Request) {
	p, ok := period(w, r)
	if !ok {
		return
	}
	stats, err := s.fuel.Stats(r.Context(), userID(r), p)
	if err != nil {
		writeError(w, r, err, "", "fetching fuel statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleFuelExport downloads the owner's entries and stats as a spreadsheet
func (s *Server) handleFuelExport(w http.ResponseWriter, r *http.Request) {
	p, ok := period(w, r)
	if !ok {
		return
	}
	data, err := s.fuel.Export(r.Context(), userID(r), p)
	if err != nil {
		writeError(w, r, err, "", "exporting fuel data")
		return
	}

	w.Header().Set("Content-Type", fuel.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", fuel.ExportName(p, time.Now())))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleCreateFuel(w http.ResponseWriter, r *http.Request) {
	var in fuel.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	entry, err := s.fuel.Create(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, r, err, "Fuel entry", "adding fuel entry")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleDeleteFuel(w http.ResponseWriter, r *http.Request) {
	if err := s.fuel.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeError(w, r, err, "Fuel entry", "deleting fuel entry")
		return
	}
	writeMessage(w, http.StatusOK, "Fuel entry removed")
}
