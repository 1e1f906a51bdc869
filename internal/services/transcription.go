package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/notescribe-backend/internal/platform/envutil"
	"github.com/yungbote/notescribe-backend/internal/platform/gcp"
	"github.com/yungbote/notescribe-backend/internal/platform/logger"
	"github.com/yungbote/notescribe-backend/internal/platform/openai"
)

// Transcriber converts one audio segment into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string, filename string) (string, error)
}

type transcriptionService struct {
	log      *logger.Logger
	provider string
	oai      openai.Client
	speech   gcp.Speech
}

// NewTranscriptionService selects the provider from TRANSCRIBE_PROVIDER
// (openai default, gcp for long-form speech recognition). Either client
// may be nil as long as the selected provider's is not.
func NewTranscriptionService(baseLog *logger.Logger, oai openai.Client, speech gcp.Speech) (Transcriber, error) {
	provider := strings.ToLower(envutil.Str("TRANSCRIBE_PROVIDER", "openai"))
	switch provider {
	case "openai":
		if oai == nil {
			return nil, fmt.Errorf("TRANSCRIBE_PROVIDER=openai but no openai client configured")
		}
	case "gcp":
		if speech == nil {
			return nil, fmt.Errorf("TRANSCRIBE_PROVIDER=gcp but no speech client configured")
		}
	default:
		return nil, fmt.Errorf("unknown TRANSCRIBE_PROVIDER %q", provider)
	}
	return &transcriptionService{
		log:      baseLog.With("service", "TranscriptionService"),
		provider: provider,
		oai:      oai,
		speech:   speech,
	}, nil
}

const transcribePrompt = "This is a recording of a home health nursing visit. Transcribe clinical terminology, medication names, and OASIS assessment language accurately."

func (s *transcriptionService) Transcribe(ctx context.Context, audio []byte, mimeType string, filename string) (string, error) {
	switch s.provider {
	case "gcp":
		return s.speech.TranscribeAudioBytes(ctx, audio, mimeType)
	default:
		return s.oai.TranscribeAudio(ctx, audio, filename, transcribePrompt)
	}
}
