package appraisal

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/etheron-labs/etheron-backend/internal/domain"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.0-flash"
	imageMIMEType  = "image/png"

	describePrompt = "Analyze this image and provide a professional title and a short description suitable for an art gallery. Format as JSON with keys 'name' and 'description'."
)

// GeminiClient calls the Gemini generateContent API to produce listing
// metadata and appraisal text for uploaded images. Every failure path
// degrades to the fixed fallback values; callers never see an error from
// this collaborator.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client

	// group collapses concurrent calls for the same image into one
	// upstream request.
	group singleflight.Group
}

// NewGeminiClient creates a client for the hosted Gemini API. With an empty
// API key the client skips the network entirely and serves fallbacks.
func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		apiKey:     apiKey,
		model:      defaultModel,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewGeminiClientWithBaseURL creates a client against a custom endpoint.
// Used by tests to point at a stub server.
func NewGeminiClientWithBaseURL(apiKey, baseURL string, httpClient *http.Client) *GeminiClient {
	c := NewGeminiClient(apiKey)
	c.baseURL = baseURL
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

var _ domain.Appraiser = (*GeminiClient)(nil)

// generateContent request/response wire types (only the fields we use).

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Describe generates a title and description for an image. Any failure
// returns the fallback metadata with a nil error.
func (c *GeminiClient) Describe(ctx context.Context, image []byte) (domain.ImageMetadata, error) {
	if c.apiKey == "" {
		return domain.FallbackMetadata(), nil
	}

	key := "describe:" + imageDigest(image)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		text, err := c.generate(ctx, image, describePrompt, true)
		if err != nil {
			return nil, err
		}

		var meta domain.ImageMetadata
		if err := json.Unmarshal([]byte(text), &meta); err != nil {
			return nil, fmt.Errorf("malformed metadata response: %w", err)
		}
		if meta.Title == "" {
			return nil, fmt.Errorf("metadata response missing name")
		}
		return meta, nil
	})
	if err != nil {
		log.Printf("Image description failed, using fallback: %v", err)
		return domain.FallbackMetadata(), nil
	}

	return v.(domain.ImageMetadata), nil
}

// Appraise generates a cosmetic market appraisal for a named image. Any
// failure returns the fallback text with a nil error.
func (c *GeminiClient) Appraise(ctx context.Context, image []byte, name string) (string, error) {
	if c.apiKey == "" {
		return domain.FallbackAppraisal, nil
	}

	prompt := fmt.Sprintf("Appraise this digital image named %q for a high-tech NFT marketplace. Provide a professional, concise market analysis (2-3 sentences) explaining its visual appeal and estimated rarity score (1-100). Output in professional financial tone.", name)

	key := "appraise:" + name + ":" + imageDigest(image)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		return c.generate(ctx, image, prompt, false)
	})
	if err != nil {
		log.Printf("Appraisal failed, using fallback: %v", err)
		return domain.FallbackAppraisal, nil
	}

	text := v.(string)
	if text == "" {
		return domain.UnavailableAppraisal, nil
	}
	return text, nil
}

// generate performs one generateContent call and returns the first
// candidate's text.
func (c *GeminiClient) generate(ctx context.Context, image []byte, prompt string, jsonResponse bool) (string, error) {
	reqBody := generateRequest{
		Contents: []content{
			{
				Parts: []part{
					{Text: prompt},
					{InlineData: &inlineData{
						MIMEType: imageMIMEType,
						Data:     base64.StdEncoding.EncodeToString(image),
					}},
				},
			},
		},
	}
	if jsonResponse {
		reqBody.GenerationConfig = &generationConfig{ResponseMIMEType: "application/json"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("malformed response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

func imageDigest(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}
