package mistral

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerate(t *testing.T) {
	var gotPath, gotKey string
	var gotReq conversationRequest

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-KEY")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(conversationResponse{
			Outputs: []conversationOutput{
				{Content: []conversationChunk{{Type: "text", Text: "try meatless mondays"}}},
			},
		})
	}))
	defer ts.Close()

	c := NewClient("key123", "agent-1", ts.URL)
	text, err := c.Generate(context.Background(), "weekly summary")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "try meatless mondays" {
		t.Errorf("text = %q", text)
	}
	if gotPath != conversationPath {
		t.Errorf("path = %s", gotPath)
	}
	if gotKey != "key123" {
		t.Errorf("api key header = %q", gotKey)
	}
	if gotReq.AgentID != "agent-1" || gotReq.Inputs != "weekly summary" {
		t.Errorf("request = %+v", gotReq)
	}
}

func TestGenerateErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	if _, err := NewClient("key", "agent", ts.URL).Generate(context.Background(), "p"); err == nil {
		t.Error("expected error on non-2xx status")
	}
	if _, err := NewClient("", "agent", ts.URL).Generate(context.Background(), "p"); err == nil {
		t.Error("expected error without api key")
	}
	if _, err := NewClient("key", "", ts.URL).Generate(context.Background(), "p"); err == nil {
		t.Error("expected error without agent id")
	}
}

func TestFirstTextPrecedence(t *testing.T) {
	r := conversationResponse{
		Message: conversationPiece{Content: "from message"},
		Outputs: []conversationOutput{{Content: []conversationChunk{{Text: "from outputs"}}}},
	}
	if got := r.firstText(); got != "from message" {
		t.Errorf("firstText = %q", got)
	}

	r = conversationResponse{Output: "from output"}
	if got := r.firstText(); got != "from output" {
		t.Errorf("firstText = %q", got)
	}

	r = conversationResponse{}
	if got := r.firstText(); got != "" {
		t.Errorf("firstText = %q; want empty", got)
	}
}
