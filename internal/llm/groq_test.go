package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ai-diet-planner/internal/config"

	oaioption "github.com/openai/openai-go/v3/option"
)

func TestGroqClientGenerateContent(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "llama-3.3-70b-versatile",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "{\"mealPlan\": []}"}}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150}
		}`)
	}))
	defer srv.Close()

	client := NewGroqClient("test-key", GenerationConfig{
		Model:           "llama-3.3-70b-versatile",
		Temperature:     0.3,
		MaxOutputTokens: 512,
	}, oaioption.WithBaseURL(srv.URL))

	resp, err := client.GenerateContent(context.Background(), "plan my week")
	if err != nil {
		t.Fatalf("GenerateContent failed: %v", err)
	}

	if resp.Content != `{"mealPlan": []}` {
		t.Errorf("Unexpected content %q", resp.Content)
	}
	if resp.Usage.PromptTokens != 120 || resp.Usage.CompletionTokens != 30 || resp.Usage.TotalTokens != 150 {
		t.Errorf("Unexpected usage %+v", resp.Usage)
	}
	if resp.Usage.Model != "llama-3.3-70b-versatile" {
		t.Errorf("Unexpected model %q", resp.Usage.Model)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Expected bearer auth, got %q", gotAuth)
	}
	if rf, _ := gotBody["response_format"].(map[string]any); rf["type"] != "json_object" {
		t.Errorf("Expected json_object response format, got %v", gotBody["response_format"])
	}
	if gotBody["max_completion_tokens"] != float64(512) {
		t.Errorf("Expected max_completion_tokens 512, got %v", gotBody["max_completion_tokens"])
	}
}

func TestGroqClientDoesNotRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error": {"message": "overloaded"}}`)
	}))
	defer srv.Close()

	client := NewGroqClient("k", GenerationConfig{Model: "m"}, oaioption.WithBaseURL(srv.URL))
	_, err := client.GenerateContent(context.Background(), "hi")
	if err == nil {
		t.Fatal("Expected an error from a failing upstream")
	}
	if !strings.Contains(err.Error(), "groq api error") {
		t.Errorf("Unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected exactly 1 upstream call, got %d", calls)
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := &config.Config{
		LLMProvider: config.ProviderGroq,
		GroqAPIKey:  "k",
		GroqModel:   "llama",
		Temperature: 0.5,
	}
	client, err := NewFromConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	groq, ok := client.(*GroqClient)
	if !ok {
		t.Fatalf("Expected *GroqClient, got %T", client)
	}
	if groq.gen.Model != "llama" || groq.gen.Temperature != 0.5 {
		t.Errorf("Unexpected generation config %+v", groq.gen)
	}

	if _, err := NewFromConfig(context.Background(), &config.Config{LLMProvider: "other"}); err == nil {
		t.Error("Expected an error for an unknown provider")
	}
}
