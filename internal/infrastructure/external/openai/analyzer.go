package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/garyjia/field-expense/internal/ai"
	"github.com/garyjia/field-expense/internal/domain/entity"
	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// visionResult is the JSON object the model is asked to return
type visionResult struct {
	ImageQuality  int              `json:"image_quality"`
	HasMetadata   bool             `json:"has_metadata"`
	IsScreenshot  bool             `json:"is_screenshot"`
	IsEdited      bool             `json:"is_edited"`
	OCRConfidence int              `json:"ocr_confidence"`
	ExtractedText string           `json:"extracted_text"`
	Reading       *decimal.Decimal `json:"reading"`
	Amount        *decimal.Decimal `json:"amount"`
	HasBillFormat bool             `json:"has_bill_format"`
}

// promptData is passed to the user prompt templates
type promptData struct {
	Kind string
	Hint string
}

// chatCompleter is the part of the OpenAI client the analyzer uses
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ImageAnalyzer implements ai.ImageAnalyzer with the OpenAI vision API
type ImageAnalyzer struct {
	client  chatCompleter
	model   string
	prompts *PromptConfig
	hints   map[string]string
	logger  *zap.Logger
}

// NewImageAnalyzer creates a new OpenAI image analyzer
func NewImageAnalyzer(apiKey, baseURL, model string, prompts *PromptConfig, logger *zap.Logger) *ImageAnalyzer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return newImageAnalyzer(openai.NewClientWithConfig(cfg), model, prompts, logger)
}

func newImageAnalyzer(client chatCompleter, model string, prompts *PromptConfig, logger *zap.Logger) *ImageAnalyzer {
	return &ImageAnalyzer{
		client:  client,
		model:   model,
		prompts: prompts,
		hints:   map[string]string{},
		logger:  logger,
	}
}

// WithHint adds a fixed sentence to the prompt for one image kind
func (a *ImageAnalyzer) WithHint(kind, hint string) *ImageAnalyzer {
	a.hints[kind] = hint
	return a
}

// Analyze sends the image to the vision model and parses its observations
func (a *ImageAnalyzer) Analyze(ctx context.Context, kind string, img ai.Image) (*ai.ImageAnalysis, error) {
	prompt, err := a.promptFor(kind)
	if err != nil {
		return nil, err
	}

	userText, err := renderTemplate(prompt.UserTemplate, promptData{Kind: kind, Hint: a.hints[kind]})
	if err != nil {
		return nil, err
	}

	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	a.logger.Debug("Analyzing image with Vision API",
		zap.String("kind", kind),
		zap.String("mime_type", mimeType),
		zap.Int("size", len(img.Data)))

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		MaxTokens:   prompt.MaxTokens,
		Temperature: prompt.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: prompt.System,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: userText,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(img.Data)),
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		a.logger.Error("Vision API call failed", zap.Error(err))
		return nil, fmt.Errorf("vision API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from Vision API")
	}

	content := resp.Choices[0].Message.Content

	var result visionResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		// Fallback: try to extract JSON from markdown code blocks
		jsonStr := extractJSON(content)
		if jsonStr == "" || json.Unmarshal([]byte(jsonStr), &result) != nil {
			a.logger.Error("Failed to parse Vision API response",
				zap.Error(err),
				zap.String("content", content))
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		a.logger.Info("Extracted JSON from response")
	}

	a.logger.Info("Image analyzed",
		zap.String("kind", kind),
		zap.Int("image_quality", result.ImageQuality),
		zap.Int("ocr_confidence", result.OCRConfidence),
		zap.Bool("is_screenshot", result.IsScreenshot),
		zap.Bool("is_edited", result.IsEdited))

	return toImageAnalysis(&result), nil
}

func (a *ImageAnalyzer) promptFor(kind string) (Prompt, error) {
	switch kind {
	case entity.ImageKindOdometer:
		return a.prompts.Odometer, nil
	case entity.ImageKindBill:
		return a.prompts.Bill, nil
	default:
		return Prompt{}, fmt.Errorf("unsupported image kind: %s", kind)
	}
}

func toImageAnalysis(r *visionResult) *ai.ImageAnalysis {
	return &ai.ImageAnalysis{
		Quality:       clampPercent(r.ImageQuality),
		HasMetadata:   r.HasMetadata,
		IsScreenshot:  r.IsScreenshot,
		IsEdited:      r.IsEdited,
		OCRConfidence: clampPercent(r.OCRConfidence),
		ExtractedText: r.ExtractedText,
		Reading:       r.Reading,
		Amount:        r.Amount,
		HasBillFormat: r.HasBillFormat,
	}
}

func clampPercent(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// extractJSON extracts JSON from markdown code blocks
func extractJSON(content string) string {
	start := findJSONStart(content)
	if start < 0 {
		return ""
	}
	end := findJSONEnd(content, start)
	if end <= start {
		return ""
	}
	return content[start:end]
}

// findJSONStart finds the start of JSON content in a string
func findJSONStart(content string) int {
	for i := 0; i < len(content); i++ {
		if content[i] == '{' {
			return i
		}
	}
	return -1
}

// findJSONEnd finds the end of JSON content starting at a given position
func findJSONEnd(content string, start int) int {
	if start < 0 || start >= len(content) || content[start] != '{' {
		return -1
	}

	braceCount := 0
	inString := false
	escapeNext := false

	for i := start; i < len(content); i++ {
		char := content[i]

		if escapeNext {
			escapeNext = false
			continue
		}

		if char == '\\' {
			escapeNext = true
			continue
		}

		if char == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		if char == '{' {
			braceCount++
		} else if char == '}' {
			braceCount--
			if braceCount == 0 {
				return i + 1
			}
		}
	}

	return -1
}
