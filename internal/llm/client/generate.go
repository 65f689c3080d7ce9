package client

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/cloudwego/eino/schema"

	"devforge/internal/models"
)

// GenerationRequest carries everything the prompt template needs.
type GenerationRequest struct {
	TicketID    string
	Description string
	Context     string // inlined relevant files, may be empty
	Mode        string // "create" or "edit"
}

// Generate runs one blocking generation call and parses the structured
// file list out of the model's reply. An empty file list is an error: the
// caller treats it as a generation failure, not a fatal one.
func (c *LLMClient) Generate(ctx context.Context, req GenerationRequest) (*models.GenerationResult, error) {
	if c == nil || c.chatModel == nil {
		return nil, fmt.Errorf("llm client not initialized")
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("description is required")
	}

	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	reply, err := c.chatModel.Generate(ctx, []*schema.Message{
		schema.UserMessage(prompt),
	})
	if err != nil {
		return nil, fmt.Errorf("model call: %w", err)
	}
	if reply == nil || strings.TrimSpace(reply.Content) == "" {
		return nil, fmt.Errorf("model returned an empty reply")
	}

	result, err := parseGenerationOutput(reply.Content)
	if err != nil {
		return nil, err
	}
	if len(result.Files) == 0 {
		return nil, fmt.Errorf("model returned no files")
	}
	return result, nil
}

func buildPrompt(req GenerationRequest) (string, error) {
	name := "prompts/create.txt"
	if req.Mode == "edit" {
		name = "prompts/edit.txt"
	}

	raw, err := embeddedPrompts.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("load prompt template %s: %w", name, err)
	}

	tmpl, err := template.New(name).Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("parse prompt template %s: %w", name, err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, req); err != nil {
		return "", fmt.Errorf("render prompt template %s: %w", name, err)
	}
	return b.String(), nil
}
