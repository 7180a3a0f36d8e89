// Package ocr talks to the recognition backends that read pump receipts.
package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Image is an uploaded receipt image
type Image struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Gateway recognizes receipts in an image. With split set, the backend may find several
// receipts in one photo and return one Recognition for each.
type Gateway interface {
	Recognize(ctx context.Context, image Image, split bool) (*Result, error)
	// Close releases resources held by the backend
	Close() error
}

// Result is everything a backend recognized in one image
type Result struct {
	Recognitions []Recognition
}

// Recognition is one receipt found in an image
type Recognition struct {
	Fields  Fields
	RawText string
}

// Fields are the structured values read from one receipt
type Fields struct {
	PrintDate        Text           `json:"PRINT DATE"`
	PumpSerialNumber Text           `json:"PUMP SERIAL NUMBER"`
	Nozzles          []NozzleFields `json:"NOZZLES"`
	EmployeeName     Text           `json:"EMPLOYEE_NAME"`
	EmployeeID       Text           `json:"EMPLOYEE_ID"`
	ShiftTime        Text           `json:"SHIFT_TIME"`
}

// NozzleFields are the raw readings for one nozzle
type NozzleFields struct {
	Nozzle     Text `json:"NOZZLE"`
	A          Text `json:"A"`
	V          Text `json:"V"`
	TotalSales Text `json:"TOT SALES"`
}

// Text is a recognized value. Backends send strings, bare numbers or null; all decode to a
// string, null as empty.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("recognized value %s is neither text nor a number", data)
	}
	*t = Text(n.String())
	return nil
}

func (t Text) String() string {
	return string(t)
}

// Failure is returned when a backend could not produce a usable result
type Failure struct {
	Reason string
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Reason, f.Err)
	}
	return f.Reason
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func failure(reason string, err error) *Failure {
	return &Failure{Reason: reason, Err: err}
}

// wireResponse is the JSON shape of a recognition answer
type wireResponse struct {
	Success *bool        `json:"success"`
	Results []wireResult `json:"results"`
	Error   string       `json:"error"`
}

type wireResult struct {
	Data    Fields `json:"data"`
	OCRText string `json:"ocr_text"`
}

func (w *wireResponse) result() *Result {
	res := &Result{Recognitions: make([]Recognition, 0, len(w.Results))}
	for _, r := range w.Results {
		res.Recognitions = append(res.Recognitions, Recognition{Fields: r.Data, RawText: r.OCRText})
	}
	return res
}

func statusReason(code int) string {
	return "OCR service returned status " + strconv.Itoa(code)
}
