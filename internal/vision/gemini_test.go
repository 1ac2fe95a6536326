package vision

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wastenot/wastenot-backend/internal/apperrors"
	"github.com/wastenot/wastenot-backend/internal/config"
	"github.com/wastenot/wastenot-backend/pkg/logger"
)

// newTestAnalyzer points a GeminiAnalyzer at a stub server that always
// responds with the given candidate text.
func newTestAnalyzer(t *testing.T, candidateText string, status int) *GeminiAnalyzer {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, candidateText)
	}))
	t.Cleanup(server.Close)

	analyzer := NewGeminiAnalyzer(&config.GeminiConfig{
		APIKey:         "test-key",
		Model:          "gemini-1.5-flash",
		TimeoutSeconds: 5,
	}, logger.New("error", "json", "stdout"))
	analyzer.baseURL = server.URL
	analyzer.client = &http.Client{Timeout: time.Second}
	return analyzer
}

func TestGeminiAnalyzer_EstimateConsumption(t *testing.T) {
	analyzer := newTestAnalyzer(t, "25%", http.StatusOK)

	// 25% left means 75% eaten.
	eaten, err := analyzer.EstimateConsumption(context.Background(), []byte("before"), []byte("after"))
	if err != nil {
		t.Fatalf("EstimateConsumption() failed: %v", err)
	}
	if eaten != 75 {
		t.Errorf("Expected 75 eaten, got %d", eaten)
	}
}

func TestGeminiAnalyzer_EstimateConsumption_Unparseable(t *testing.T) {
	analyzer := newTestAnalyzer(t, "the plate looks fairly empty", http.StatusOK)

	_, err := analyzer.EstimateConsumption(context.Background(), []byte("b"), []byte("a"))
	if !errors.Is(err, apperrors.ErrEstimatorUnavailable) {
		t.Errorf("Expected ErrEstimatorUnavailable for unparseable response, got %v", err)
	}
}

func TestGeminiAnalyzer_EstimateConsumption_ProviderError(t *testing.T) {
	analyzer := newTestAnalyzer(t, "", http.StatusTooManyRequests)

	_, err := analyzer.EstimateConsumption(context.Background(), []byte("b"), []byte("a"))
	if !errors.Is(err, apperrors.ErrEstimatorUnavailable) {
		t.Errorf("Expected ErrEstimatorUnavailable on provider error, got %v", err)
	}
}

func TestGeminiAnalyzer_ContainsFood(t *testing.T) {
	analyzer := newTestAnalyzer(t, "Yes", http.StatusOK)

	ok, err := analyzer.ContainsFood(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("ContainsFood() failed: %v", err)
	}
	if !ok {
		t.Error("Expected ContainsFood to report true for a yes response")
	}
}

func TestGeminiAnalyzer_ContainsFood_No(t *testing.T) {
	analyzer := newTestAnalyzer(t, "no", http.StatusOK)

	ok, err := analyzer.ContainsFood(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("ContainsFood() failed: %v", err)
	}
	if ok {
		t.Error("Expected ContainsFood to report false for a no response")
	}
}

func TestGeminiAnalyzer_ContainsFood_FailsClosed(t *testing.T) {
	analyzer := newTestAnalyzer(t, "", http.StatusInternalServerError)

	ok, err := analyzer.ContainsFood(context.Background(), []byte("img"))
	if !errors.Is(err, apperrors.ErrEstimatorUnavailable) {
		t.Errorf("Expected ErrEstimatorUnavailable, got %v", err)
	}
	if ok {
		t.Error("Expected ContainsFood to fail closed")
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
		ok   bool
	}{
		{"plain", "25%", 25, true},
		{"with space", "25 %", 25, true},
		{"embedded", "About 40% of the food is left.", 40, true},
		{"zero", "0%", 0, true},
		{"hundred", "100%", 100, true},
		{"no percent sign", "25", 0, false},
		{"no number", "I cannot tell", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parsePercent(tt.text)
			if ok != tt.ok {
				t.Fatalf("parsePercent(%q) ok = %v, want %v", tt.text, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("parsePercent(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestClampPercent(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-10, 0},
		{0, 0},
		{55, 55},
		{100, 100},
		{140, 100},
	}
	for _, tt := range tests {
		if got := clampPercent(tt.in); got != tt.want {
			t.Errorf("clampPercent(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
