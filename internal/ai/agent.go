package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"proposal-studio/internal/core"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

// ContentSuggestion is the structured output of a drafting request: proposal
// copy the user can accept as-is or edit.
type ContentSuggestion struct {
	Title     string `json:"title" jsonschema_description:"Short proposal title, max 80 characters"`
	CoverNote string `json:"cover_note" jsonschema_description:"Two or three sentences introducing the proposal to the client"`
	Terms     string `json:"terms" jsonschema_description:"Payment and validity terms, e.g. Net 30"`
}

type AgentService interface {
	SuggestProposalContent(ctx context.Context, brief string, p core.Proposal) (*ContentSuggestion, error)
}

type Agent struct {
	client *openai.Client
}

func NewAgent(apiKey string) *Agent {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Agent{client: &client}
}

// SuggestProposalContent drafts a title, cover note, and terms for the current
// proposal from a free-text brief plus the line items already on it. The
// suggestion is never applied automatically; the caller decides what to keep.
func (a *Agent) SuggestProposalContent(ctx context.Context, brief string, p core.Proposal) (*ContentSuggestion, error) {
	prompt := fmt.Sprintf(`You are a sales assistant drafting a commercial proposal.
Write a concise title, a short cover note addressed to the client, and payment terms.
Rules:
1. Professional tone, no marketing superlatives.
2. Reference the actual line items where it helps.
3. Do not invent prices or quantities; the totals below are authoritative.

Client: %s (%s)
Line items:
%s
Grand total: %s

Brief from the salesperson: %s`,
		p.ClientName, p.CompanyName, summarizeLines(p.Lines), p.GrandTotal.StringFixed(2), brief)

	// Dynamically generate the JSON schema from the Go struct
	schemaStruct := generateSchema()
	schemaJSON, err := json.Marshal(schemaStruct)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "proposal_content_suggestion",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("Drafted title, cover note, and terms for a commercial proposal"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	var suggestion ContentSuggestion
	if err := json.Unmarshal([]byte(content), &suggestion); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}
	if suggestion.Title == "" {
		return nil, fmt.Errorf("suggestion missing title")
	}

	return &suggestion, nil
}

func summarizeLines(lines []core.LineItem) string {
	if len(lines) == 0 {
		return "- (none yet)"
	}
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = fmt.Sprintf("- %s ×%d @ %s", l.Name, l.Quantity, l.UnitPrice.StringFixed(2))
	}
	return strings.Join(parts, "\n")
}

func generateSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v ContentSuggestion
	return reflector.Reflect(v)
}
