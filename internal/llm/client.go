package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"doc2db/internal/models"
)

const systemPrompt = `You are a database schema expert. Given a document (PDF text, image, or table), extract:
1. ENTITIES: main nouns (e.g. Customer, Order, Product) and their key attributes with types.
2. RELATIONSHIPS: how entities relate (e.g. Customer places Order; Order has many OrderItems).
3. TABLE_DATA: every row of data visible in the document, keyed by the exact attribute names.

Respond with valid JSON only, no markdown, in this exact shape:
{
  "entities": [
    { "name": "EntityName", "attributes": [ {"name": "attr_name", "type": "string|integer|decimal|date|boolean"} ] }
  ],
  "relationships": [
    { "from": "Entity1", "to": "Entity2", "type": "one_to_one|one_to_many|many_to_many" }
  ],
  "table_data": [
    { "table": "EntityName", "rows": [ {"attr_name": "value"} ] }
  ]
}
If the document has no table or list at all, use "table_data": []. Otherwise include every row.`

const userPrompt = `Analyze this document and extract entities, relationships and all visible data rows. Return only the JSON object, no other text.`

// Extractor turns document content into a raw entity/relationship payload.
// The pipeline depends on this interface so tests can substitute a stub for
// the model call.
type Extractor interface {
	ExtractFromText(ctx context.Context, text string) (*models.RawExtraction, error)
	ExtractFromImage(ctx context.Context, data []byte, mediaType string) (*models.RawExtraction, error)
}

// ClaudeExtractor implements Extractor against the Claude API, using the
// vision path for images.
type ClaudeExtractor struct {
	client *anthropic.Client
	model  string
}

func NewClaudeExtractor(apiKey, model string) *ClaudeExtractor {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &ClaudeExtractor{client: &c, model: model}
}

func (e *ClaudeExtractor) ExtractFromText(ctx context.Context, text string) (*models.RawExtraction, error) {
	return e.extract(ctx,
		anthropic.NewTextBlock(userPrompt+"\n\nDocument content:\n"+text),
	)
}

func (e *ClaudeExtractor) ExtractFromImage(ctx context.Context, data []byte, mediaType string) (*models.RawExtraction, error) {
	encoded := base64.StdEncoding.EncodeToString(data)
	return e.extract(ctx,
		anthropic.NewTextBlock(userPrompt),
		anthropic.NewImageBlockBase64(mediaType, encoded),
	)
}

func (e *ClaudeExtractor) extract(ctx context.Context, blocks ...anthropic.ContentBlockParamUnion) (*models.RawExtraction, error) {
	resp, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("model request failed: %w", err)
	}

	var responseText string
	for i := range resp.Content {
		if resp.Content[i].Type == "text" {
			responseText = resp.Content[i].Text
			break
		}
	}
	if responseText == "" {
		return nil, fmt.Errorf("model returned an empty response")
	}

	return ParseResponse(responseText)
}

// ParseResponse decodes a model response into a raw extraction payload,
// tolerating a markdown code fence around the JSON.
func ParseResponse(text string) (*models.RawExtraction, error) {
	text = StripCodeFence(text)
	var raw models.RawExtraction
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		snippet := text
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, fmt.Errorf("model response was not valid JSON: %w (starts with: %s)", err, snippet)
	}
	return &raw, nil
}

// StripCodeFence removes a surrounding ``` block, with or without a language
// tag, since models wrap JSON that way despite instructions.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	parts := strings.Split(text, "```")
	if len(parts) < 2 {
		return text
	}
	inner := parts[1]
	inner = strings.TrimPrefix(inner, "json")
	return strings.TrimSpace(inner)
}
