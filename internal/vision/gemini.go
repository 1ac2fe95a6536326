package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wastenot/wastenot-backend/internal/apperrors"
	"github.com/wastenot/wastenot-backend/internal/config"
	"github.com/wastenot/wastenot-backend/pkg/logger"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

var percentPattern = regexp.MustCompile(`(\d{1,3})\s?%`)

// GeminiAnalyzer talks to the Gemini generateContent REST API.
type GeminiAnalyzer struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

// NewGeminiAnalyzer creates a Gemini-backed analyzer.
func NewGeminiAnalyzer(cfg *config.GeminiConfig, log *logger.Logger) *GeminiAnalyzer {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GeminiAnalyzer{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: geminiBaseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// ContainsFood asks the model for a yes/no judgement on the image.
// Provider failures fail closed: the image is treated as not food.
func (g *GeminiAnalyzer) ContainsFood(ctx context.Context, image []byte) (bool, error) {
	prompt := `Does this image show a plate of food? Respond with only "yes" or "no". Do not explain or include anything else.`

	text, err := g.generate(ctx, prompt, image)
	if err != nil {
		g.log.Warn().Err(err).Msg("Food presence check failed")
		return false, fmt.Errorf("food check: %w", apperrors.ErrEstimatorUnavailable)
	}

	return strings.Contains(strings.ToLower(strings.TrimSpace(text)), "yes"), nil
}

// EstimateConsumption asks the model what percentage of the food is left on
// the plate in the after photo and converts it to percent eaten.
func (g *GeminiAnalyzer) EstimateConsumption(ctx context.Context, before, after []byte) (int, error) {
	prompt := `You will see two images. The first is a plate of food before eating, and the second is the plate after eating. ` +
		`Estimate what percentage of the original food is LEFT on the plate in the second image. ` +
		`Respond with ONLY a number followed by a percent sign (e.g., "25%"). Do not explain.`

	text, err := g.generate(ctx, prompt, before, after)
	if err != nil {
		return 0, fmt.Errorf("consumption estimate: %w: %v", apperrors.ErrEstimatorUnavailable, err)
	}

	left, ok := parsePercent(text)
	if !ok {
		g.log.Warn().Str("response", text).Msg("Could not extract a percentage from estimator response")
		return 0, fmt.Errorf("consumption estimate unparseable: %w", apperrors.ErrEstimatorUnavailable)
	}

	eaten := clampPercent(100 - left)
	g.log.Debug().Int("left", left).Int("eaten", eaten).Msg("Parsed consumption estimate")
	return eaten, nil
}

// EstimateWaste asks the model how much food was wasted based on the after
// photo alone.
func (g *GeminiAnalyzer) EstimateWaste(ctx context.Context, after []byte) (int, error) {
	prompt := `This image shows a plate after a meal. Estimate what percentage of the served food was left uneaten. ` +
		`Respond with ONLY a number followed by a percent sign (e.g., "25%"). Do not explain.`

	text, err := g.generate(ctx, prompt, after)
	if err != nil {
		return 0, fmt.Errorf("waste estimate: %w: %v", apperrors.ErrEstimatorUnavailable, err)
	}

	waste, ok := parsePercent(text)
	if !ok {
		g.log.Warn().Str("response", text).Msg("Could not extract a percentage from estimator response")
		return 0, fmt.Errorf("waste estimate unparseable: %w", apperrors.ErrEstimatorUnavailable)
	}
	return clampPercent(waste), nil
}

// generate performs one generateContent call with a text prompt and one or
// more JPEG images, returning the first candidate's text.
func (g *GeminiAnalyzer) generate(ctx context.Context, prompt string, images ...[]byte) (string, error) {
	parts := []geminiPart{{Text: prompt}}
	for _, img := range images {
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{
				MimeType: "image/jpeg",
				Data:     base64.StdEncoding.EncodeToString(img),
			},
		})
	}

	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// parsePercent extracts the first "<n>%" occurrence from model output.
func parsePercent(text string) (int, bool) {
	match := percentPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
