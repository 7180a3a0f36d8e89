package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/zombor/fuel-station/internal/ocr"
	"github.com/zombor/fuel-station/internal/receipt"
	"github.com/zombor/fuel-station/internal/station"
)

// multipart overhead allowed on top of the image itself
const formOverhead = 1 << 20

type uploadResponse struct {
	Message  string             `json:"message"`
	Count    int                `json:"count"`
	Receipts []*station.Receipt `json:"receipts"`
	Failed   int                `json:"failed,omitempty"`
}

// handleUploadReceipt stores an image and turns it into receipts
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, receipt.MaxUploadSize+formOverhead)
	if err := r.ParseMultipartForm(receipt.MaxUploadSize + formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusBadRequest, "File is too large. Maximum size is 10MB.")
			return
		}
		logRequestError(r, "Error parsing multipart form", err)
		writeMessage(w, http.StatusBadRequest, "No image file provided")
		return
	}

	f, header, err := r.FormFile("image")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		logRequestError(r, "Error reading file data", err)
		writeMessage(w, http.StatusInternalServerError, "Error reading file. Please try again.")
		return
	}

	split := !strings.EqualFold(strings.TrimSpace(r.FormValue("split")), "false")
	upload := &receipt.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}

	batch, err := s.receipts.Ingest(r.Context(), userID(r), upload, split)
	if err != nil {
		var verr *station.ValidationError
		var failure *ocr.Failure
		switch {
		case errors.As(err, &verr):
			writeMessage(w, http.StatusBadRequest, verr.Message)
		case errors.As(err, &failure):
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Message: "Error processing receipt",
				Error:   failure.Reason,
			})
		default:
			logRequestError(r, "Error processing receipt", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Message: "Error processing receipt",
				Error:   err.Error(),
			})
		}
		return
	}

	receipts := batch.Receipts()
	writeJSON(w, http.StatusCreated, uploadResponse{
		Message:  "Receipt(s) processed successfully",
		Count:    len(receipts),
		Receipts: receipts,
		Failed:   len(batch.Failed()),
	})
}

func writeReceipts(w http.ResponseWriter, receipts []*station.Receipt) {
	if receipts == nil {
		receipts = []*station.Receipt{}
	}
	writeJSON(w, http.StatusOK, receipts)
}

func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.receipts.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err, "Receipt", "fetching receipts")
		return
	}
	writeReceipts(w, receipts)
}

func (s *Server) handleReceiptsByMachine(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.receipts.ListByMachine(r.Context(), userID(r), r.PathValue("machineId"))
	if err != nil {
		writeError(w, r, err, "Machine", "fetching receipts")
		return
	}
	writeReceipts(w, receipts)
}

func (s *Server) handleReceiptsByEmployee(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.receipts.ListByEmployee(r.Context(), userID(r), r.PathValue("employeeId"))
	if err != nil {
		writeError(w, r, err, "Employee", "fetching receipts")
		return
	}
	writeReceipts(w, receipts)
}

func (s *Server) handleReceiptStats(w http.ResponseWriter, r *http.Request) {
	p, ok := period(w, r)
	if !ok {
		return
	}
	stats, err := s.receipts.Stats(r.Context(), userID(r), p)
	if err != nil {
		writeError(w, r, err, "", "fetching receipt statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	rc, err := s.receipts.Get(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "Receipt", "fetching receipt")
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

// handleReceiptImage returns the uploaded image a receipt was read from
func (s *Server) handleReceiptImage(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.receipts.Image(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "Image", "fetching receipt image")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	if err := s.receipts.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeError(w, r, err, "Receipt", "deleting receipt")
		return
	}
	writeMessage(w, http.StatusOK, "Receipt removed successfully")
}
