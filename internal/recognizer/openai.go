package recognizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"murmur/internal/language"
)

// OpenAIOptions configures the remote transcription backend.
type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAI sends audio to an OpenAI-compatible transcription endpoint and
// emits the returned segments in order.
type OpenAI struct {
	opts   OpenAIOptions
	client *openai.Client
	model  string
	lang   language.Selector
}

// NewOpenAI constructs the backend without contacting the service.
func NewOpenAI(opts OpenAIOptions) *OpenAI {
	if opts.Model == "" {
		opts.Model = openai.Whisper1
	}
	return &OpenAI{opts: opts}
}

// Load prepares the client. modelPath names the remote model and overrides
// the configured default when set.
func (o *OpenAI) Load(modelPath string, lang language.Selector) error {
	if strings.TrimSpace(o.opts.APIKey) == "" {
		return errors.New("openai api key is not configured")
	}
	cfg := openai.DefaultConfig(o.opts.APIKey)
	if base := strings.TrimSpace(o.opts.BaseURL); base != "" {
		cfg.BaseURL = strings.TrimRight(base, "/")
	}
	if o.opts.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: o.opts.Timeout}
	}
	o.client = openai.NewClientWithConfig(cfg)
	o.model = o.opts.Model
	if name := strings.TrimSpace(modelPath); name != "" {
		o.model = name
	}
	o.lang = lang
	return nil
}

// Transcribe uploads the audio and emits each returned segment.
func (o *OpenAI) Transcribe(ctx context.Context, audioPath string, emit EmitFunc) error {
	if o.client == nil {
		return errors.New("openai client not loaded")
	}
	req := openai.AudioRequest{
		Model:    o.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}
	if !o.lang.IsAuto() && o.lang.Code != "" {
		req.Language = o.lang.Code
	}
	resp, err := o.client.CreateTranscription(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("openai transcription: %w", err)
	}

	if len(resp.Segments) == 0 {
		if text := strings.TrimSpace(resp.Text); text != "" {
			end := time.Duration(resp.Duration * float64(time.Second))
			return emit(Segment{Start: 0, End: end, Text: text})
		}
		return nil
	}
	for _, seg := range resp.Segments {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(Segment{
			Start: secondsToDuration(seg.Start),
			End:   secondsToDuration(seg.End),
			Text:  strings.TrimSpace(seg.Text),
		}); err != nil {
			return err
		}
	}
	return nil
}

// Close drops the client.
func (o *OpenAI) Close() error {
	o.client = nil
	return nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second)).Round(time.Millisecond)
}

var _ Engine = (*OpenAI)(nil)
