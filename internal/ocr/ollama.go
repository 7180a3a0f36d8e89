package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "llava"
)

// Ollama implements Gateway using a local Ollama vision model
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllama creates an Ollama gateway
func NewOllama(baseURL, modelName string) *Ollama {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if modelName == "" {
		modelName = DefaultOllamaModel
	}

	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   modelName,
		client: &http.Client{
			// vision models are slow on CPU
			Timeout: 120 * time.Second,
		},
	}
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// Recognize asks the Ollama model to read the receipts in the image
func (o *Ollama) Recognize(ctx context.Context, image Image, split bool) (*Result, error) {
	data, err := toPNG(image.Data, image.ContentType)
	if err != nil {
		return nil, failure("could not prepare image", err)
	}

	reqBody := ollamaChatRequest{
		Model:  o.model,
		Stream: false,
		Format: "json",
		Messages: []ollamaMessage{
			{
				Role:    "system",
				Content: "You read fuel pump receipts and transcribe them accurately.",
			},
			{
				Role:    "user",
				Content: promptFor(split),
				Images:  []string{base64.StdEncoding.EncodeToString(data)},
			},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, failure("could not build ollama request", err)
	}

	url := fmt.Sprintf("%s/api/chat", o.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, failure("could not build ollama request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, failure("ollama unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, failure(fmt.Sprintf("ollama API error (status %d): %s", resp.StatusCode, truncate(string(body), 256)), nil)
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, failure("malformed ollama response", err)
	}

	result, err := parseModelAnswer(chatResp.Message.Content)
	if err != nil {
		return nil, failure("malformed ollama response", err)
	}
	return result, nil
}

// Close is a no-op for the HTTP client
func (o *Ollama) Close() error {
	return nil
}
