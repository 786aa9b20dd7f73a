package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
)

const maxPollyTextChars = 3000

// PollyAPI is the subset of the Polly client used for narration audio.
type PollyAPI interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

type PollyConfig struct {
	VoiceID string `envconfig:"VOICE_ID" split_words:"true" default:"Joanna"`
	Engine  string `envconfig:"ENGINE" split_words:"true" default:"standard"`
}

var _ contractx.SpeechSynthesizer = (*PollySynthesizer)(nil)

type PollySynthesizer struct {
	client PollyAPI
	voice  pollytypes.VoiceId
	engine pollytypes.Engine
}

func NewPollySynthesizer(client PollyAPI, cfg PollyConfig) (*PollySynthesizer, error) {
	if client == nil {
		return nil, errors.New("polly client is required")
	}
	voice := strings.TrimSpace(cfg.VoiceID)
	if voice == "" {
		voice = string(pollytypes.VoiceIdJoanna)
	}
	engine := strings.TrimSpace(cfg.Engine)
	if engine == "" {
		engine = string(pollytypes.EngineStandard)
	}
	return &PollySynthesizer{
		client: client,
		voice:  pollytypes.VoiceId(voice),
		engine: pollytypes.Engine(engine),
	}, nil
}

func (p *PollySynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: narration text is empty", contractx.ErrValidation)
	}
	if len([]rune(text)) > maxPollyTextChars {
		text = string([]rune(text)[:maxPollyTextChars])
	}

	out, err := p.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		OutputFormat: pollytypes.OutputFormatMp3,
		VoiceId:      p.voice,
		Engine:       p.engine,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: polly synthesize: %v", contractx.ErrRemoteCall, err)
	}
	if out.AudioStream == nil {
		return nil, fmt.Errorf("%w: polly returned no audio stream", contractx.ErrRemoteCall)
	}
	defer out.AudioStream.Close()

	audio, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, fmt.Errorf("%w: read polly audio: %v", contractx.ErrRemoteCall, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: polly returned empty audio", contractx.ErrRemoteCall)
	}
	return audio, nil
}
