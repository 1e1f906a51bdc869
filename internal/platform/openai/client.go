package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/notescribe-backend/internal/platform/ctxutil"
	"github.com/yungbote/notescribe-backend/internal/platform/logger"
)

// Client is the OpenAI API surface the pipeline depends on: audio
// transcription and strict structured (json_schema) generation.
type Client interface {
	// TranscribeAudio sends audio bytes to the transcription endpoint and
	// returns the plain transcript text.
	TranscribeAudio(ctx context.Context, audio []byte, filename string, prompt string) (string, error)

	// GenerateJSON requests a completion constrained to the given JSON
	// schema. The returned object's top-level keys match the schema.
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)
}

type client struct {
	log             *logger.Logger
	baseURL         string
	apiKey          string
	model           string
	transcribeModel string
	httpClient      *http.Client
	maxRetries      int
}

func NewClient(log *logger.Logger) (Client, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}

	baseURL := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if model == "" {
		model = "gpt-4.1-mini"
	}

	transcribeModel := strings.TrimSpace(os.Getenv("OPENAI_TRANSCRIBE_MODEL"))
	if transcribeModel == "" {
		transcribeModel = "gpt-4o-transcribe"
	}

	timeoutSec := 180
	if v := os.Getenv("OPENAI_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 4
	if v := os.Getenv("OPENAI_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &client{
		log:             log.With("service", "OpenAIClient"),
		baseURL:         baseURL,
		apiKey:          apiKey,
		model:           model,
		transcribeModel: transcribeModel,
		httpClient:      &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries:      maxRetries,
	}, nil
}

type responsesRequest struct {
	Model string `json:"model"`
	Input []struct {
		Role    string `json:"role"`
		Content any    `json:"content"`
	} `json:"input"`
	Text struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type    string `json:"type"`
			Text    string `json:"text"`
			Refusal string `json:"refusal"`
		} `json:"content"`
	} `json:"output"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *client) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	if schemaName == "" {
		return nil, errors.New("schemaName required")
	}
	if schema == nil {
		return nil, errors.New("schema required")
	}

	req := responsesRequest{Model: c.model}
	req.Input = []struct {
		Role    string `json:"role"`
		Content any    `json:"content"`
	}{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
	req.Text.Format = map[string]any{
		"type":   "json_schema",
		"name":   schemaName,
		"schema": schema,
		"strict": true,
	}

	var resp responsesResponse
	if err := c.doJSON(ctx, "POST", "/v1/responses", &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("openai responses: %s", resp.Error.Message)
	}

	text, refusal := extractOutputText(resp)
	if refusal != "" {
		return nil, fmt.Errorf("model refused: %s", refusal)
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("openai responses: empty output")
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("openai responses: parse output: %w", err)
	}
	return out, nil
}

type transcriptionResponse struct {
	Text  string `json:"text"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *client) TranscribeAudio(ctx context.Context, audio []byte, filename string, prompt string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("empty audio")
	}
	if filename == "" {
		filename = "audio"
	}

	var attempt int
	for {
		body := &bytes.Buffer{}
		mw := multipart.NewWriter(body)
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			return "", err
		}
		if _, err := fw.Write(audio); err != nil {
			return "", err
		}
		_ = mw.WriteField("model", c.transcribeModel)
		if prompt != "" {
			_ = mw.WriteField("prompt", prompt)
		}
		if err := mw.Close(); err != nil {
			return "", err
		}

		httpReq, err := http.NewRequestWithContext(ctxutil.Default(ctx), "POST", c.baseURL+"/v1/audio/transcriptions", body)
		if err != nil {
			return "", err
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("Content-Type", mw.FormDataContentType())

		httpResp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if retryErr := c.waitRetry(ctx, &attempt, err); retryErr != nil {
				return "", retryErr
			}
			continue
		}
		raw, readErr := io.ReadAll(httpResp.Body)
		_ = httpResp.Body.Close()
		if readErr != nil {
			return "", readErr
		}
		if retryableStatus(httpResp.StatusCode) {
			if retryErr := c.waitRetry(ctx, &attempt, fmt.Errorf("transcription status %d: %s", httpResp.StatusCode, truncate(raw, 300))); retryErr != nil {
				return "", retryErr
			}
			continue
		}
		if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
			return "", fmt.Errorf("transcription status %d: %s", httpResp.StatusCode, truncate(raw, 300))
		}

		var resp transcriptionResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return "", fmt.Errorf("transcription parse: %w", err)
		}
		if resp.Error != nil {
			return "", fmt.Errorf("transcription: %s", resp.Error.Message)
		}
		return resp.Text, nil
	}
}

func (c *client) doJSON(ctx context.Context, method string, path string, in any, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	var attempt int
	for {
		httpReq, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")

		httpResp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if retryErr := c.waitRetry(ctx, &attempt, err); retryErr != nil {
				return retryErr
			}
			continue
		}
		raw, readErr := io.ReadAll(httpResp.Body)
		_ = httpResp.Body.Close()
		if readErr != nil {
			return readErr
		}
		if retryableStatus(httpResp.StatusCode) {
			if retryErr := c.waitRetry(ctx, &attempt, fmt.Errorf("openai status %d: %s", httpResp.StatusCode, truncate(raw, 300))); retryErr != nil {
				return retryErr
			}
			continue
		}
		if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
			return fmt.Errorf("openai status %d: %s", httpResp.StatusCode, truncate(raw, 300))
		}
		return json.Unmarshal(raw, out)
	}
}

// waitRetry sleeps with exponential backoff, or returns the terminal error
// once the retry budget is spent.
func (c *client) waitRetry(ctx context.Context, attempt *int, cause error) error {
	if *attempt >= c.maxRetries {
		return cause
	}
	delay := time.Duration(1<<uint(*attempt)) * 500 * time.Millisecond
	*attempt++
	c.log.Warn("OpenAI call retrying", "attempt", *attempt, "delay", delay.String(), "error", cause)
	select {
	case <-ctxutil.Default(ctx).Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func extractOutputText(resp responsesResponse) (text string, refusal string) {
	for _, item := range resp.Output {
		if item.Type != "" && item.Type != "message" {
			continue
		}
		for _, content := range item.Content {
			switch content.Type {
			case "output_text":
				text += content.Text
			case "refusal":
				refusal = content.Refusal
			}
		}
	}
	return text, refusal
}

func truncate(raw []byte, n int) string {
	s := string(raw)
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
