package chat

import (
	"context"
	"errors"

	"google.golang.org/genai"
)

// GeminiProvider creates chat sessions backed by the Gemini API. Each session
// gets its own client built from the key in its SessionConfig.
type GeminiProvider struct{}

func NewGeminiProvider() *GeminiProvider {
	return &GeminiProvider{}
}

// NewSession opens a Gemini chat with the character's system instruction.
func (p *GeminiProvider) NewSession(ctx context.Context, cfg SessionConfig) (Session, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("chat: missing API key")
	}
	if cfg.Model == "" {
		return nil, errors.New("chat: missing model identifier")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(cfg.SystemInstruction, genai.RoleUser),
	}

	conversation, err := client.Chats.Create(ctx, cfg.Model, genCfg, nil)
	if err != nil {
		return nil, err
	}

	return &geminiSession{chat: conversation}, nil
}

type geminiSession struct {
	chat *genai.Chat
}

func (s *geminiSession) Send(ctx context.Context, text string) (string, error) {
	res, err := s.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", &RemoteError{Op: "send message", Err: err}
	}

	// Safety-filtered prompts come back with no candidates rather than an error.
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return "", &RemoteError{Op: "send message", Err: errors.New("response contained no candidates")}
	}

	return res.Candidates[0].Content.Parts[0].Text, nil
}

// GeminiCompleter issues one-shot completions; the summary generator uses it
// with the primary credential and a fixed summarization model.
type GeminiCompleter struct {
	apiKey string
	model  string
}

func NewGeminiCompleter(apiKey, model string) *GeminiCompleter {
	return &GeminiCompleter{apiKey: apiKey, model: model}
}

func (c *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", &RemoteError{Op: "summarize", Err: errors.New("API key not configured")}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", &RemoteError{Op: "summarize", Err: err}
	}

	res, err := client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", &RemoteError{Op: "summarize", Err: err}
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return "", &RemoteError{Op: "summarize", Err: errors.New("response contained no candidates")}
	}

	return res.Candidates[0].Content.Parts[0].Text, nil
}
