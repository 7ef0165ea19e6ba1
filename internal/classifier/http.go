package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type classifyRequest struct {
	Text      string `json:"text"`
	MaxLength int    `json:"max_length"`
}

type classifyResponse struct {
	Logits []float64 `json:"logits"`
}

// HTTPBackend talks to a sidecar exposing POST /classify.
type HTTPBackend struct {
	baseURL string
	client  *http.Client
}

func NewHTTPBackend(baseURL string, client *http.Client) *HTTPBackend {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPBackend{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (b *HTTPBackend) Logits(ctx context.Context, text string, maxLength int) ([]float64, error) {
	body, err := json.Marshal(classifyRequest{Text: text, MaxLength: maxLength})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier service error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("classifier service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return out.Logits, nil
}

// HTTPHandler serves f as POST /classify, the counterpart of HTTPBackend.
func HTTPHandler(f LogitsFunc) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /classify", func(w http.ResponseWriter, r *http.Request) {
		var req classifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		logits, err := f(r.Context(), req.Text, req.MaxLength)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		// JSON cannot carry NaN or Inf, so encode before committing a 200
		body, err := json.Marshal(classifyResponse{Logits: logits})
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to encode logits: %v", err), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
	return mux
}
