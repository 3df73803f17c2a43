package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8081/", "test-key", "")
	if client.BaseURL != "http://localhost:8081" {
		t.Errorf("NewClient() BaseURL = %v, want http://localhost:8081", client.BaseURL)
	}
	if client.Model != DefaultModel {
		t.Errorf("NewClient() Model = %v, want %v", client.Model, DefaultModel)
	}
	if client.MaxTokens != DefaultMaxTokens || client.Temperature != DefaultTemperature {
		t.Errorf("NewClient() sampling = %d/%v", client.MaxTokens, client.Temperature)
	}
	if client.client == nil {
		t.Error("NewClient() client should not be nil")
	}
	if client.limiter != nil {
		t.Error("NewClient() limiter should be nil without WithRateLimit")
	}
}

func TestClient_Summarize(t *testing.T) {
	tests := []struct {
		name       string
		serverResp func(w http.ResponseWriter, r *http.Request)
		want       string
		wantErr    string
	}{
		{
			name: "successful summary",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/v1/chat/completions" {
					t.Errorf("expected /v1/chat/completions, got %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
					t.Errorf("Authorization = %q", got)
				}

				var req ChatRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Fatalf("decode request: %v", err)
				}
				if req.Model != "test-model" || req.MaxTokens != 500 || req.Temperature != 0.5 {
					t.Errorf("unexpected request params: %+v", req)
				}
				if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[0].Content != SystemPrompt {
					t.Errorf("unexpected system message: %+v", req.Messages)
				}
				if !strings.Contains(req.Messages[1].Content, `titled "setup"`) || !strings.Contains(req.Messages[1].Content, "# Setup") {
					t.Errorf("unexpected user message: %q", req.Messages[1].Content)
				}

				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(ChatResponse{
					ID:     "test-id",
					Object: "chat.completion",
					Choices: []ChatChoice{{
						Message:      ChatMessage{Role: "assistant", Content: "\n- one\n- two\n"},
						FinishReason: "stop",
					}},
				})
			},
			want: "- one\n- two",
		},
		{
			name: "no choices returned",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(ChatResponse{ID: "test-id"})
			},
			wantErr: "no choices returned",
		},
		{
			name: "api error envelope",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
			},
			wantErr: "bad status 429: slow down",
		},
		{
			name: "plain error body",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			wantErr: "bad status 500",
		},
		{
			name: "invalid json",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{not json"))
			},
			wantErr: "failed to decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			client := NewClient(server.URL, "test-key", "test-model")
			got, err := client.Summarize(context.Background(), "# Setup\n\nInstall.", "setup")
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Summarize() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Summarize() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Summarize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClient_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "m")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.Summarize(ctx, "x", "y"); err == nil {
		t.Fatal("expected error when the deadline expires")
	}
}

func TestClient_RateLimitHonorsContext(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", "", "m", WithRateLimit(0.001))
	// The first token is available immediately; consume it.
	if !client.limiter.Allow() {
		t.Fatal("expected initial token")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.Summarize(ctx, "x", "y")
	if err == nil || !strings.Contains(err.Error(), "rate limit wait") {
		t.Fatalf("Summarize() error = %v, want rate limit wait error", err)
	}
}
