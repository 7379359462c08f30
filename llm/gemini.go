package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiClient serves completions from the Gemini API
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient dials Gemini with an API key
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY: %w", ErrMissingAPIKey)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return NewGeminiClientFrom(client, model), nil
}

// NewGeminiClientFrom wraps an existing genai client
func NewGeminiClientFrom(client *genai.Client, model string) *GeminiClient {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiClient{client: client, model: model}
}

// Close releases the underlying client
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// Complete implements Completer. System messages become the system
// instruction; the remaining turns are replayed as chat history and the final
// user turn is sent.
func (g *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.JSONMode {
		model.ResponseMIMEType = "application/json"
	}

	var system []genai.Part
	var turns []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, genai.Text(m.Content))
		case RoleAssistant:
			turns = append(turns, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			turns = append(turns, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: system}
	}
	if len(turns) == 0 || turns[len(turns)-1].Role != "user" {
		return "", NewPermanentError(ErrNoUserMessage)
	}

	chat := model.StartChat()
	chat.History = turns[:len(turns)-1]
	resp, err := chat.SendMessage(ctx, turns[len(turns)-1].Parts...)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	var out strings.Builder
	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop && cand.FinishReason != genai.FinishReasonUnspecified {
			slog.Warn("gemini candidate finished early", "candidate", i, "reason", cand.FinishReason.String())
		}
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out.WriteString(string(text))
			}
		}
		// first candidate with content is the answer
		if out.Len() > 0 {
			break
		}
	}
	if out.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return out.String(), nil
}

func classifyGeminiError(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return NewPermanentError(err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		// Don't retry on 400 or 401 errors
		if apiErr.Code == http.StatusBadRequest || apiErr.Code == http.StatusUnauthorized {
			return NewPermanentError(err)
		}
	}
	return fmt.Errorf("gemini: %w", err)
}
