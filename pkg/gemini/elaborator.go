package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cellexis-assistant/internal/pkg/logger"
	"cellexis-assistant/pkg/gateway"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// fallbackPrefix is prepended to the raw RAG answer whenever elaboration
// cannot be produced. Callers rely on this exact lead-in.
const fallbackPrefix = "Based on our research database: "

// noCandidateText is returned when Gemini answers 200 but the response
// carries no usable candidate.
const noCandidateText = "I found some relevant information, but couldn't elaborate on it right now."

type geminiParts struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []*geminiParts `json:"parts"`
	Role  string         `json:"role,omitempty"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []*geminiContent  `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content *geminiContent `json:"content"`
}

type geminiResponse struct {
	Candidates []*geminiCandidate `json:"candidates"`
}

// Elaborator turns a raw RAG result into a short conversational answer
// suitable for speech synthesis. It is specified to never fail: any problem
// with the generative call degrades to the raw answer with a fixed lead-in.
type Elaborator struct {
	BaseURL string // overridable for tests
	apiKey  string
	client  *http.Client
	logger  logger.ILogger
}

func NewElaborator(apiKey string, log logger.ILogger) *Elaborator {
	return &Elaborator{
		BaseURL: defaultBaseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log,
	}
}

// Elaborate asks Gemini to rephrase the RAG answer for voice delivery.
// Generation parameters are fixed for consistent spoken output.
func (e *Elaborator) Elaborate(ctx context.Context, query string, result *gateway.RAGResult) string {
	if e.apiKey == "" {
		return fallbackPrefix + result.Answer
	}

	text, err := e.generate(ctx, buildPrompt(query, result))
	if err != nil {
		e.logger.Warn("Gemini", "Elaboration failed, falling back to raw answer", map[string]interface{}{
			"error": err.Error(),
		})
		return fallbackPrefix + result.Answer
	}
	return text
}

func (e *Elaborator) generate(ctx context.Context, prompt string) (string, error) {
	payload := geminiRequest{
		Contents: []*geminiContent{
			{
				Parts: []*geminiParts{{Text: prompt}},
			},
		},
		GenerationConfig: &generationConfig{
			Temperature:     0.7,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 200,
		},
	}

	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		"POST",
		e.BaseURL+"/v1beta/models/gemini-1.5-flash:generateContent",
		bytes.NewBuffer(payloadJson),
	)
	if err != nil {
		return "", err
	}

	req.Header.Set("x-goog-api-key", e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf(
			"status error, got status %d. with response body %s",
			res.StatusCode,
			string(resBody),
		)
	}

	var geminiRes geminiResponse
	if err := json.Unmarshal(resBody, &geminiRes); err != nil {
		return "", err
	}

	if len(geminiRes.Candidates) == 0 ||
		geminiRes.Candidates[0].Content == nil ||
		len(geminiRes.Candidates[0].Content.Parts) == 0 {
		return noCandidateText, nil
	}

	return geminiRes.Candidates[0].Content.Parts[0].Text, nil
}

// buildPrompt embeds the original question plus the retrieval summary, and
// instructs the model to keep the answer short enough for voice delivery.
func buildPrompt(query string, result *gateway.RAGResult) string {
	return fmt.Sprintf(`
You are Cellexis, an intelligent voice assistant for NASA's bioscience research knowledge graph.

The user asked: "%s"

Our database search returned this information:
- Answer: %s
- Number of citations: %d
- Retrieved chunks: %d

Please provide a natural, conversational response that:
1. Directly answers the user's question
2. Elaborates on the key findings with scientific context
3. Mentions relevant research connections if applicable
4. Keeps the response concise but informative (2-3 sentences max for voice)
5. Uses a friendly, helpful tone suitable for voice interaction

Focus on making complex scientific information accessible and engaging for voice delivery.
`, query, result.Answer, len(result.Citations), result.ChunksUsed)
}
