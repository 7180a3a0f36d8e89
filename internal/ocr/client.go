package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultServiceURL = "http://localhost:5001"
	DefaultTimeout    = 60 * time.Second
)

// Client implements Gateway against the receipt OCR microservice
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Client for the service at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultServiceURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Recognize posts the image to the service's /process endpoint
func (c *Client) Recognize(ctx context.Context, image Image, split bool) (*Result, error) {
	body, contentType, err := multipartBody(image, split)
	if err != nil {
		return nil, failure("could not build OCR request", err)
	}

	url := fmt.Sprintf("%s/process", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, failure("could not build OCR request", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, failure("OCR service unavailable", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, failure("reading OCR response", err)
	}

	var wire wireResponse
	decodeErr := json.Unmarshal(data, &wire)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := statusReason(resp.StatusCode)
		if decodeErr == nil && wire.Error != "" {
			reason = wire.Error
		}
		slog.Error("OCR service error", "status", resp.StatusCode, "body", truncate(string(data), 512))
		return nil, failure(reason, nil)
	}
	if decodeErr != nil {
		return nil, failure("malformed OCR response", decodeErr)
	}
	if wire.Success == nil || !*wire.Success {
		reason := wire.Error
		if reason == "" {
			reason = "OCR processing failed"
		}
		return nil, failure(reason, nil)
	}

	return wire.result(), nil
}

// Close is a no-op for the HTTP client
func (c *Client) Close() error {
	return nil
}

func multipartBody(image Image, split bool) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	filename := image.Filename
	if filename == "" {
		filename = "receipt"
	}
	contentType := image.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image.Data); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("split", strconv.FormatBool(split)); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
