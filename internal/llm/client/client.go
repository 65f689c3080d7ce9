package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

// DefaultOllamaBaseURL is where a stock local Ollama install listens.
const DefaultOllamaBaseURL = "http://localhost:11434"

// DefaultOllamaModel is the local code model used when nothing else is
// configured.
const DefaultOllamaModel = "qwen2.5-coder:7b"

const defaultMaxTokens = 8192

// Config selects the chat model backing the code generator.
type Config struct {
	Provider string // ollama, openai, anthropic, gemini
	Model    string
	APIKey   string // unused for ollama
	BaseURL  string // ollama only
}

// LLMClient wraps one configured chat model. The zero value is unusable;
// construct through New or one of the provider constructors.
type LLMClient struct {
	chatModel einomodel.BaseChatModel
	provider  string
	model     string
}

// New builds a client for the configured provider. Ollama is the default
// and needs no API key.
func New(ctx context.Context, cfg Config) (*LLMClient, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = "ollama"
	}

	switch provider {
	case "ollama":
		return NewOllamaClient(ctx, cfg.BaseURL, cfg.Model)
	case "openai":
		return NewOpenAIClient(ctx, cfg.APIKey, cfg.Model)
	case "anthropic":
		return NewClaudeClient(ctx, cfg.APIKey, cfg.Model)
	case "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// NewOllamaClient connects to a local Ollama server.
func NewOllamaClient(ctx context.Context, baseURL, model string) (*LLMClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultOllamaBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultOllamaModel
	}

	chatModel, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
		BaseURL: baseURL,
		Model:   model,
	})
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	return &LLMClient{chatModel: chatModel, provider: "ollama", model: model}, nil
}

// NewOpenAIClient connects to the OpenAI API.
func NewOpenAIClient(ctx context.Context, apiKey, model string) (*LLMClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey: apiKey,
		Model:  model,
	})
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return &LLMClient{chatModel: chatModel, provider: "openai", model: model}, nil
}

// NewClaudeClient connects to the Anthropic API.
func NewClaudeClient(ctx context.Context, apiKey, model string) (*LLMClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	maxTokens := defaultMaxTokens
	chatModel, err := claude.NewChatModel(ctx, &claude.Config{
		APIKey:    apiKey,
		Model:     model,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create claude client: %w", err)
	}
	return &LLMClient{chatModel: chatModel, provider: "anthropic", model: model}, nil
}

// NewGeminiClient connects to the Gemini API.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*LLMClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client: genaiClient,
		Model:  model,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &LLMClient{chatModel: chatModel, provider: "gemini", model: model}, nil
}

// Provider returns the configured provider id.
func (c *LLMClient) Provider() string {
	return c.provider
}

// Model returns the configured model name.
func (c *LLMClient) Model() string {
	return c.model
}
