package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/yungbote/notescribe-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, srv *httptest.Server) Client {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", srv.URL)
	t.Setenv("OPENAI_MODEL", "test-model")
	t.Setenv("OPENAI_TRANSCRIBE_MODEL", "test-transcribe")
	t.Setenv("OPENAI_MAX_RETRIES", "2")

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c, err := NewClient(log)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func respondOutputText(w http.ResponseWriter, text string) {
	body := map[string]any{
		"output": []any{
			map[string]any{
				"type": "message",
				"content": []any{
					map[string]any{"type": "output_text", "text": text},
				},
			},
		},
	}
	_ = json.NewEncoder(w).Encode(body)
}

func TestGenerateJSON_SendsStrictSchemaRequest(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/responses" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing auth header, got %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		respondOutputText(w, `{"title":"Visit","summary":"Patient seen at home."}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	schema := map[string]any{"type": "object"}
	out, err := c.GenerateJSON(context.Background(), "system text", "user text", "note_summary", schema)
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if out["title"] != "Visit" || out["summary"] != "Patient seen at home." {
		t.Fatalf("unexpected output: %v", out)
	}

	if captured["model"] != "test-model" {
		t.Fatalf("model not sent: %v", captured["model"])
	}
	text := captured["text"].(map[string]any)
	format := text["format"].(map[string]any)
	if format["type"] != "json_schema" || format["name"] != "note_summary" || format["strict"] != true {
		t.Fatalf("format not strict json_schema: %v", format)
	}
	if _, ok := format["schema"].(map[string]any); !ok {
		t.Fatalf("schema missing from format: %v", format)
	}
	input := captured["input"].([]any)
	if len(input) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(input))
	}
}

func TestGenerateJSON_RetriesOn429(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":{"message":"rate limited"}}`)
			return
		}
		respondOutputText(w, `{"ok":true}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	out, err := c.GenerateJSON(context.Background(), "s", "u", "probe", map[string]any{"type": "object"})
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if out["ok"] != true {
		t.Fatalf("unexpected output: %v", out)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}

func TestGenerateJSON_BadRequestDoesNotRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad schema"}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	if _, err := c.GenerateJSON(context.Background(), "s", "u", "probe", map[string]any{"type": "object"}); err == nil {
		t.Fatalf("expected error on 400")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("400 must not retry, got %d calls", got)
	}
}

func TestGenerateJSON_RefusalIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{
			"output": []any{
				map[string]any{
					"type": "message",
					"content": []any{
						map[string]any{"type": "refusal", "refusal": "cannot comply"},
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	if _, err := c.GenerateJSON(context.Background(), "s", "u", "probe", map[string]any{"type": "object"}); err == nil {
		t.Fatalf("expected refusal to surface as error")
	}
}

func TestGenerateJSON_ValidatesArguments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected")
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	if _, err := c.GenerateJSON(context.Background(), "s", "u", "", map[string]any{"type": "object"}); err == nil {
		t.Fatalf("empty schema name must be rejected")
	}
	if _, err := c.GenerateJSON(context.Background(), "s", "u", "probe", nil); err == nil {
		t.Fatalf("nil schema must be rejected")
	}
}

func TestTranscribeAudio_MultipartUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "test-transcribe" {
			t.Errorf("model field missing, got %q", got)
		}
		if got := r.FormValue("prompt"); got != "clinical hint" {
			t.Errorf("prompt field missing, got %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file part missing: %v", err)
		} else {
			file.Close()
			if header.Filename != "visit.mp3" {
				t.Errorf("filename lost, got %q", header.Filename)
			}
		}
		fmt.Fprint(w, `{"text":"patient reports improvement"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	text, err := c.TranscribeAudio(context.Background(), []byte("fake-audio"), "visit.mp3", "clinical hint")
	if err != nil {
		t.Fatalf("TranscribeAudio: %v", err)
	}
	if text != "patient reports improvement" {
		t.Fatalf("unexpected transcript %q", text)
	}
}

func TestTranscribeAudio_EmptyAudioRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected")
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	if _, err := c.TranscribeAudio(context.Background(), nil, "visit.mp3", ""); err == nil {
		t.Fatalf("empty audio must be rejected")
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	if _, err := NewClient(log); err == nil {
		t.Fatalf("expected error without OPENAI_API_KEY")
	}
}
