package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewOllamaClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     OllamaConfig
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: OllamaConfig{
				BaseURL:        "http://localhost:11434",
				Model:          "llama3.3:latest",
				TimeoutSeconds: 120,
				MaxTokens:      2000,
			},
			wantErr: false,
		},
		{
			name: "missing model",
			cfg: OllamaConfig{
				BaseURL: "http://localhost:11434",
				Model:   "",
			},
			wantErr: true,
		},
		{
			name: "default base URL",
			cfg: OllamaConfig{
				Model: "llama3.3:latest",
			},
			wantErr: false,
		},
		{
			name: "trailing slash in base URL",
			cfg: OllamaConfig{
				BaseURL: "http://localhost:11434/",
				Model:   "llama3.3:latest",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewOllamaClient(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewOllamaClient() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && client == nil {
				t.Error("NewOllamaClient() returned nil client without error")
			}
		})
	}
}

func TestOllamaClient_Generate(t *testing.T) {
	const responseText = `{"explanation": "cache eviction storm", "severity": "MEDIUM"}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s, want /api/chat", r.URL.Path)
		}

		req := verifyOllamaChatRequest(t, r, w)
		if req == nil {
			return
		}
		if req.Format != "json" {
			t.Errorf("format = %q, want json", req.Format)
		}
		if req.Stream {
			t.Error("stream = true, want false")
		}

		resp := ollamaChatResponse{
			Model:           req.Model,
			CreatedAt:       time.Now(),
			Message:         ollamaMessage{Role: "assistant", Content: responseText},
			Done:            true,
			PromptEvalCount: 1500,
			EvalCount:       250,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, err := NewOllamaClient(OllamaConfig{
		BaseURL: server.URL,
		Model:   "llama3.3:latest",
	})
	if err != nil {
		t.Fatalf("NewOllamaClient() error = %v", err)
	}

	text, stats, err := client.Generate(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != responseText {
		t.Errorf("Generate() = %q, want %q", text, responseText)
	}
	if stats.InputTokens != 1500 {
		t.Errorf("InputTokens = %d, want 1500", stats.InputTokens)
	}
	if stats.OutputTokens != 250 {
		t.Errorf("OutputTokens = %d, want 250", stats.OutputTokens)
	}
	if stats.CostUSD != 0 {
		t.Errorf("CostUSD = %v, want 0 (local inference)", stats.CostUSD)
	}
}

func TestOllamaClient_GenerateIncompleteResponse(t *testing.T) {
	stubSleep(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "partial"},
			Done:    false,
		})
	}))
	defer server.Close()

	client, err := NewOllamaClient(OllamaConfig{BaseURL: server.URL, Model: "llama3.3:latest"})
	if err != nil {
		t.Fatalf("NewOllamaClient() error = %v", err)
	}

	_, _, err = client.Generate(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("Generate() error = nil, want incomplete response error")
	}
}

func TestOllamaClient_CheckConnection(t *testing.T) {
	tests := []struct {
		name       string
		model      string
		models     []string
		statusCode int
		wantErr    bool
	}{
		{
			name:       "model found exact",
			model:      "llama3.3:latest",
			models:     []string{"llama3.3:latest", "mistral:latest"},
			statusCode: http.StatusOK,
			wantErr:    false,
		},
		{
			name:       "model found by prefix",
			model:      "llama3.3",
			models:     []string{"llama3.3:latest"},
			statusCode: http.StatusOK,
			wantErr:    false,
		},
		{
			name:       "model missing",
			model:      "llama3.3:latest",
			models:     []string{"mistral:latest"},
			statusCode: http.StatusOK,
			wantErr:    true,
		},
		{
			name:       "server error",
			model:      "llama3.3:latest",
			models:     nil,
			statusCode: http.StatusInternalServerError,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/tags" {
					t.Errorf("path = %s, want /api/tags", r.URL.Path)
				}
				if tt.statusCode != http.StatusOK {
					w.WriteHeader(tt.statusCode)
					return
				}
				models := make([]map[string]string, len(tt.models))
				for i, name := range tt.models {
					models[i] = map[string]string{"name": name}
				}
				_ = json.NewEncoder(w).Encode(map[string]interface{}{"models": models})
			}))
			defer server.Close()

			client, err := NewOllamaClient(OllamaConfig{BaseURL: server.URL, Model: tt.model})
			if err != nil {
				t.Fatalf("NewOllamaClient() error = %v", err)
			}

			err = client.CheckConnection(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckConnection() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOllamaClient_GetModelInfo(t *testing.T) {
	client, err := NewOllamaClient(OllamaConfig{
		BaseURL:   "http://localhost:11434",
		Model:     "llama3.3:latest",
		MaxTokens: 2000,
	})
	if err != nil {
		t.Fatalf("NewOllamaClient() error = %v", err)
	}

	info := client.GetModelInfo()
	if info["model"] != "llama3.3:latest" {
		t.Errorf("model = %v, want llama3.3:latest", info["model"])
	}
	if info["provider"] != "Ollama" {
		t.Errorf("provider = %v, want Ollama", info["provider"])
	}
}
