package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/regentbot/regent/pkg/config"
)

const decisionPrompt = "Decide how to respond to the event. Answer with a JSON object matching the schema. Omit data to take no action."

// OpenAI generates reply decisions via the OpenAI chat completions API with a
// JSON-schema constrained response format.
type OpenAI struct {
	client openai.Client
	model  shared.ChatModel
	schema map[string]any
}

// NewOpenAI builds the provider from its config document.
func NewOpenAI(cfg *config.OpenAIConfig, opts ...option.RequestOption) (*OpenAI, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("openai api key is not set")
	}
	schema, err := decisionSchema()
	if err != nil {
		return nil, err
	}
	opts = append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  shared.ChatModel(cfg.ModelID),
		schema: schema,
	}, nil
}

func (p *OpenAI) Name() string { return "openai" }

// GenerateReply asks the model for a structured reply decision.
func (p *OpenAI) GenerateReply(ctx context.Context, systemPrompt string) (*ReplyDecision, error) {
	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(decisionPrompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "reply_decision",
					Description: openai.String("The agent's decision for the current event"),
					Schema:      p.schema,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("empty completion choices")
	}
	return DecodeDecision(completion.Choices[0].Message.Content)
}

// DecodeDecision parses a model response into a ReplyDecision.
func DecodeDecision(content string) (*ReplyDecision, error) {
	decision := &ReplyDecision{}
	if err := json.Unmarshal([]byte(content), decision); err != nil {
		return nil, fmt.Errorf("decode reply decision: %w", err)
	}
	if decision.Data != nil && (decision.Data.ContentID == "" || decision.Data.ReplyText == "") {
		return nil, errors.New("reply decision data is missing content_id or reply_text")
	}
	return decision, nil
}

// decisionSchema reflects the ReplyDecision type into the plain map the
// response_format parameter wants.
func decisionSchema() (map[string]any, error) {
	r := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	b, err := json.Marshal(r.Reflect(&ReplyDecision{}))
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
