package evidence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkarpov/verity/internal/model"
)

// ErrOCRDisabled is returned when no OCR backend is configured
var ErrOCRDisabled = fmt.Errorf("ocr backend not configured")

// OCRClient extracts text from images via an external OCR service
type OCRClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewOCRClient creates an OCR client. An empty baseURL disables OCR; calls
// then return ErrOCRDisabled.
func NewOCRClient(baseURL, apiKey string, timeout time.Duration) *OCRClient {
	return &OCRClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type ocrRequest struct {
	ImageRef string `json:"image_ref"`
}

type ocrResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language"`
	Blocks     []struct {
		Text string `json:"text"`
	} `json:"blocks"`
}

// ExtractText runs OCR on the referenced image. The reference is a storage
// location (or URL) the OCR service can resolve.
func (c *OCRClient) ExtractText(ctx context.Context, imageRef string) (*model.OCRResult, error) {
	if c.baseURL == "" {
		return nil, ErrOCRDisabled
	}

	payload, err := json.Marshal(ocrRequest{ImageRef: imageRef})
	if err != nil {
		return nil, fmt.Errorf("encode ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ocr backend returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var decoded ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode ocr response: %w", err)
	}

	language := decoded.Language
	if language == "" {
		language = "unknown"
	}

	return &model.OCRResult{
		Text:             decoded.Text,
		Confidence:       model.ClampScore(decoded.Confidence),
		DetectedLanguage: language,
		BlockCount:       len(decoded.Blocks),
	}, nil
}
