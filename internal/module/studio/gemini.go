package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/styleai/server/internal/shared/config"
)

const tryOnPrompt = `You are a professional virtual fashion try-on AI. Your task is to generate a photorealistic image of a person wearing specific clothing.

CRITICAL INSTRUCTIONS:
- Generate ONLY an image of the person wearing the clothing
- The output MUST show the person from the first image wearing the clothing from the following images
- Preserve the person's facial features, body proportions, and pose exactly
- Apply each clothing item naturally with realistic fit, wrinkles, and fabric behavior
- Match the original photo's lighting, background, and photography style`

const palettePrompt = `You are an expert personal stylist specializing in color analysis. Analyze the provided photo: determine the person's skin undertone (cool, warm, or neutral), hair color, and eye color, and from that which of the 12 seasonal color palettes they fit into (e.g., Light Spring, Deep Autumn, Cool Winter).

Respond ONLY with JSON of the form:
{"season": "<palette name>", "palette": ["#RRGGBB", ...5-7 hex codes...], "description": "<encouraging paragraph explaining the season and why these colors flatter>"}`

const catalogPrompt = `You are a professional e-commerce catalog photographer AI. Composite the product from the second image onto the mannequin or model from the first image, producing a single polished catalog photograph. Keep the product's colors, texture, and proportions faithful; light and stage the scene per the requested catalog style.`

// GeminiProvider implements Provider over the Google Generative Language
// REST API.
type GeminiProvider struct {
	baseURL       string
	apiKey        string
	imageModel    string
	analysisModel string
	client        *http.Client
}

// NewGeminiProvider creates a Gemini provider from configuration.
func NewGeminiProvider(cfg *config.ProviderConfig) *GeminiProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &GeminiProvider{
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		imageModel:    cfg.ImageModel,
		analysisModel: cfg.AnalysisModel,
		client:        &http.Client{Timeout: timeout},
	}
}

// ModelFor returns the model id used for the given kind.
func (g *GeminiProvider) ModelFor(kind Kind) string {
	if kind == KindColorPalette {
		return g.analysisModel
	}
	return g.imageModel
}

// --- wire types ---

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
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
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	Temperature        float64  `json:"temperature,omitempty"`
	TopK               int      `json:"topK,omitempty"`
	TopP               float64  `json:"topP,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
	ResponseMIMEType   string   `json:"response_mime_type,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason,omitempty"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// GenerateTryOn composites the outfits onto the user photo.
func (g *GeminiProvider) GenerateTryOn(ctx context.Context, userPhoto InlineImage, outfits []InlineImage) (InlineImage, error) {
	parts := []geminiPart{
		{Text: tryOnPrompt},
		{InlineData: &geminiInlineData{MIMEType: userPhoto.MIMEType, Data: userPhoto.Data}},
		{Text: "Person to dress (maintain their exact appearance, pose, and setting)."},
	}
	for _, outfit := range outfits {
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{MIMEType: outfit.MIMEType, Data: outfit.Data},
		})
	}
	parts = append(parts, geminiPart{Text: "Generate the image NOW showing the person wearing the clothing above."})

	resp, err := g.generate(ctx, g.imageModel, &geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:        0.3,
			TopK:               20,
			TopP:               0.8,
			ResponseModalities: []string{"IMAGE"},
		},
	})
	if err != nil {
		return InlineImage{}, err
	}

	return firstInlineImage(resp)
}

// AnalyzeColorPalette determines the seasonal palette for the portrait.
func (g *GeminiProvider) AnalyzeColorPalette(ctx context.Context, portrait InlineImage) (*PaletteAnalysis, error) {
	resp, err := g.generate(ctx, g.analysisModel, &geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: palettePrompt},
				{InlineData: &geminiInlineData{MIMEType: portrait.MIMEType, Data: portrait.Data}},
			},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:      0.2,
			ResponseMIMEType: "application/json",
		},
	})
	if err != nil {
		return nil, err
	}

	text, err := firstText(resp)
	if err != nil {
		return nil, err
	}

	var analysis PaletteAnalysis
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &analysis); err != nil {
		return nil, fmt.Errorf("%w: unparseable analysis: %v", ErrProviderFailed, err)
	}
	if analysis.Season == "" || len(analysis.Palette) == 0 {
		return nil, fmt.Errorf("%w: incomplete analysis", ErrProviderFailed)
	}

	return &analysis, nil
}

// GenerateCatalog composites the product onto the mannequin.
func (g *GeminiProvider) GenerateCatalog(ctx context.Context, mannequin, product InlineImage, styleDescription string) (InlineImage, error) {
	prompt := catalogPrompt
	if styleDescription != "" {
		prompt += "\n\nRequested catalog style: " + styleDescription
	}

	resp, err := g.generate(ctx, g.imageModel, &geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: prompt},
				{InlineData: &geminiInlineData{MIMEType: mannequin.MIMEType, Data: mannequin.Data}},
				{Text: "Mannequin or model to stage."},
				{InlineData: &geminiInlineData{MIMEType: product.MIMEType, Data: product.Data}},
				{Text: "Product to composite onto the mannequin above."},
			},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:        0.3,
			TopK:               20,
			TopP:               0.8,
			ResponseModalities: []string{"IMAGE"},
		},
	})
	if err != nil {
		return InlineImage{}, err
	}

	return firstInlineImage(resp)
}

// generate executes one generateContent call.
func (g *GeminiProvider) generate(ctx context.Context, model string, req *geminiRequest) (*geminiResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrProviderUnavailable, err)
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return nil, fmt.Errorf("%w: unparseable response: %v", ErrProviderFailed, err)
	}

	if geminiResp.Error != nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrProviderFailed, geminiResp.Error.Message, geminiResp.Error.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrProviderFailed, resp.StatusCode)
	}

	return &geminiResp, nil
}

// firstInlineImage returns the first image part of the first candidate.
func firstInlineImage(resp *geminiResponse) (InlineImage, error) {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				return InlineImage{
					MIMEType: part.InlineData.MIMEType,
					Data:     part.InlineData.Data,
				}, nil
			}
		}
	}
	return InlineImage{}, fmt.Errorf("%w: response contains no image", ErrProviderFailed)
}

// firstText returns the first text part of the first candidate.
func firstText(resp *geminiResponse) (string, error) {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				return part.Text, nil
			}
		}
	}
	return "", fmt.Errorf("%w: response contains no text", ErrProviderFailed)
}

// stripCodeFence removes a markdown code fence the model sometimes wraps
// JSON answers in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Compile-time check
var _ Provider = (*GeminiProvider)(nil)
