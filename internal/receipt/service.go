package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/zombor/fuel-station/internal/ocr"
	"github.com/zombor/fuel-station/internal/station"
)

// Store is what the receipt service needs from the entity store
type Store interface {
	station.ReceiptStore
	station.MachineStore
	station.EmployeeStore
}

// Matcher resolves recognized text to machines and employees
type Matcher interface {
	MatchMachine(ctx context.Context, serial string) *station.Machine
	MatchEmployee(ctx context.Context, name, employeeID string) *station.Employee
}

// Service ingests receipt images and serves the stored receipts
type Service struct {
	store       Store
	gateway     ocr.Gateway
	matcher     Matcher
	storage     Storage
	idGenerator station.IDGenerator
	timeSource  station.TimeSource
}

// NewService creates a new Service with UUID ids and the system clock
func NewService(store Store, gateway ocr.Gateway, matcher Matcher, storage Storage) *Service {
	return NewServiceWithDeps(store, gateway, matcher, storage, station.UUIDGenerator{}, station.SystemClock{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(store Store, gateway ocr.Gateway, matcher Matcher, storage Storage, idGen station.IDGenerator, timeSrc station.TimeSource) *Service {
	return &Service{
		store:       store,
		gateway:     gateway,
		matcher:     matcher,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

func logStage(name string, stage Stage, args ...any) {
	slog.Info("receipt ingestion", append([]any{"upload", name, "stage", stage.String()}, args...)...)
}

// Ingest stores an uploaded image, has it recognized and saves one receipt per recognized
// result. When recognition fails a single unprocessed receipt is saved and the *ocr.Failure is
// returned together with the batch holding it. A result that cannot be saved is recorded in
// its Outcome and does not stop the others.
func (s *Service) Ingest(ctx context.Context, owner string, upload *Upload, split bool) (*Batch, error) {
	if err := ValidateUpload(upload); err != nil {
		return nil, err
	}

	name := storedName(upload.Filename, s.timeSource.Now())
	savedName, err := s.storage.Save(ctx, name, upload.Data)
	if err != nil {
		return nil, fmt.Errorf("saving upload: %w", err)
	}
	batch := &Batch{Upload: savedName}
	logStage(savedName, StageReceived, "size", len(upload.Data), "user", owner)

	logStage(savedName, StageRecognizing, "split", split)
	result, err := s.gateway.Recognize(ctx, ocr.Image{
		Data:        upload.Data,
		Filename:    upload.Filename,
		ContentType: upload.ContentType,
	}, split)

	// the client may go away while results are saved; the work still completes
	ctx = context.WithoutCancel(ctx)

	if err != nil {
		var failure *ocr.Failure
		if !errors.As(err, &failure) {
			failure = &ocr.Failure{Reason: err.Error(), Err: err}
		}
		logStage(savedName, StageErrored, "error", failure)
		batch.Outcomes = append(batch.Outcomes, s.persistFailure(ctx, owner, savedName, failure))
		return batch, failure
	}

	for i, rec := range result.Recognitions {
		logStage(savedName, StagePerResultMatching, "result", i)
		receipt := s.buildReceipt(ctx, owner, savedName, rec)

		logStage(savedName, StagePersisting, "result", i, "receipt", receipt.ID)
		if err := s.store.CreateReceipt(ctx, receipt); err != nil {
			slog.Error("Failed to save recognized receipt",
				"upload", savedName,
				"result", i,
				"error", err,
			)
			batch.Outcomes = append(batch.Outcomes, Outcome{Err: fmt.Errorf("saving result %d: %w", i, err)})
			continue
		}
		batch.Outcomes = append(batch.Outcomes, Outcome{Receipt: receipt})
	}

	logStage(savedName, StageCompleted, "recognized", len(result.Recognitions), "saved", batch.Count())
	return batch, nil
}

func (s *Service) persistFailure(ctx context.Context, owner, imagePath string, failure *ocr.Failure) Outcome {
	now := s.timeSource.Now()
	receipt := &station.Receipt{
		ID:               s.idGenerator.Generate(),
		UserID:           owner,
		Nozzles:          []station.Nozzle{},
		ImagePath:        imagePath,
		Processed:        false,
		ProcessingErrors: failure.Reason,
		UploadDate:       now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateReceipt(ctx, receipt); err != nil {
		slog.Error("Failed to save failed receipt", "upload", imagePath, "error", err)
		return Outcome{Err: fmt.Errorf("saving failed receipt: %w", err)}
	}
	return Outcome{Receipt: receipt}
}

func (s *Service) buildReceipt(ctx context.Context, owner, imagePath string, rec ocr.Recognition) *station.Receipt {
	f := rec.Fields
	now := s.timeSource.Now()

	receipt := &station.Receipt{
		ID:               s.idGenerator.Generate(),
		UserID:           owner,
		EmployeeName:     f.EmployeeName.String(),
		EmployeeID:       f.EmployeeID.String(),
		ShiftTime:        f.ShiftTime.String(),
		PrintDate:        f.PrintDate.String(),
		PumpSerialNumber: f.PumpSerialNumber.String(),
		Nozzles:          make([]station.Nozzle, 0, len(f.Nozzles)),
		ImagePath:        imagePath,
		OCRText:          rec.RawText,
		Processed:        true,
		UploadDate:       now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	for i, n := range f.Nozzles {
		receipt.Nozzles = append(receipt.Nozzles, station.Nozzle{
			Position:   i,
			Number:     n.Nozzle.String(),
			AValue:     station.ParseReading(n.A.String()),
			VValue:     station.ParseReading(n.V.String()),
			TotalSales: station.ParseReading(n.TotalSales.String()),
		})
	}

	if machine := s.matcher.MatchMachine(ctx, receipt.PumpSerialNumber); machine != nil {
		receipt.MachineRef = &machine.ID
		receipt.Machine = machine.Summary()
	}
	if employee := s.matcher.MatchEmployee(ctx, receipt.EmployeeName, receipt.EmployeeID); employee != nil {
		receipt.EmployeeRef = &employee.ID
		receipt.Employee = employee.Summary()
	}

	return receipt
}

func (s *Service) list(ctx context.Context, filter station.ReceiptFilter) ([]*station.Receipt, error) {
	receipts, err := s.store.ListReceipts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	station.NewReferences(s.store, s.store).Receipts(ctx, receipts...)
	return receipts, nil
}

// List returns the owner's receipts, newest upload first
func (s *Service) List(ctx context.Context, owner string) ([]*station.Receipt, error) {
	return s.list(ctx, station.ReceiptFilter{UserID: owner})
}

// ListByMachine returns the owner's receipts matched to the machine with the given business id
func (s *Service) ListByMachine(ctx context.Context, owner, machineID string) ([]*station.Receipt, error) {
	machine, err := s.store.GetMachineByMachineID(ctx, machineID)
	if err != nil {
		return nil, fmt.Errorf("getting machine: %w", err)
	}
	return s.list(ctx, station.ReceiptFilter{UserID: owner, MachineRef: machine.ID})
}

// ListByEmployee returns the owner's receipts matched to the employee or carrying the
// employee's id as read from the receipt
func (s *Service) ListByEmployee(ctx context.Context, owner, employeeID string) ([]*station.Receipt, error) {
	employee, err := s.store.GetEmployeeByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("getting employee: %w", err)
	}
	return s.list(ctx, station.ReceiptFilter{
		UserID:      owner,
		EmployeeRef: employee.ID,
		EmployeeID:  employeeID,
	})
}

// owned loads a receipt and checks it belongs to owner
func (s *Service) owned(ctx context.Context, owner, id string) (*station.Receipt, error) {
	receipt, err := s.store.GetReceipt(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	if receipt.UserID != owner {
		return nil, fmt.Errorf("receipt %s: %w", id, station.ErrForbidden)
	}
	return receipt, nil
}

// Get returns one of the owner's receipts
func (s *Service) Get(ctx context.Context, owner, id string) (*station.Receipt, error) {
	receipt, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	station.NewReferences(s.store, s.store).Receipts(ctx, receipt)
	return receipt, nil
}

// Image returns the stored image of a receipt and its content type
func (s *Service) Image(ctx context.Context, owner, id string) ([]byte, string, error) {
	receipt, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, "", err
	}

	data, err := s.storage.Get(ctx, receipt.ImagePath)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt image: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(receipt.ImagePath))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

// Delete removes a receipt, then its image. An image that cannot be removed is logged and does
// not fail the delete.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	receipt, err := s.owned(ctx, owner, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteReceipt(ctx, id); err != nil {
		return fmt.Errorf("deleting receipt: %w", err)
	}

	if receipt.ImagePath != "" {
		if err := s.storage.Delete(ctx, receipt.ImagePath); err != nil {
			slog.Warn("Failed to delete receipt image", "image", receipt.ImagePath, "error", err)
		}
	}

	slog.Info("receipt deleted", "id", id, "user", owner)
	return nil
}
