package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
)

const narrationAudioFile = "narration_audio.mp3"

type SynthesizeSpeechTool struct {
	synth contractx.SpeechSynthesizer
	store contractx.ArtifactStore
}

func NewSynthesizeSpeechTool(synth contractx.SpeechSynthesizer, store contractx.ArtifactStore) (*SynthesizeSpeechTool, error) {
	if synth == nil {
		return nil, errors.New("speech synthesizer is required")
	}
	if store == nil {
		return nil, errors.New("artifact store is required")
	}
	return &SynthesizeSpeechTool{synth: synth, store: store}, nil
}

func (t *SynthesizeSpeechTool) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: contractx.ToolSynthesizeSpeech,
		Desc: "Convert a stored narration script into mp3 speech.",
		ParamsOneOf: schema.NewParamsOneOfByParams(withParams(artifactParams(), map[string]*schema.ParameterInfo{
			contractx.KeyNarrationScriptURI: {Type: schema.String, Desc: "Narration script artifact", Required: true},
		})),
	}
}

func (t *SynthesizeSpeechTool) Invoke(ctx context.Context, args map[string]any) contractx.ToolResult {
	scriptURI, err := stringArg(args, contractx.KeyNarrationScriptURI)
	if err != nil {
		return contractx.ToolFailure(contractx.ToolSynthesizeSpeech, err)
	}
	bucket, prefix, err := artifactArgs(args)
	if err != nil {
		return contractx.ToolFailure(contractx.ToolSynthesizeSpeech, err)
	}

	script, err := t.store.Get(ctx, scriptURI)
	if err != nil {
		return contractx.ToolFailure(contractx.ToolSynthesizeSpeech, err)
	}
	if len(script) == 0 {
		return contractx.ToolFailure(contractx.ToolSynthesizeSpeech, fmt.Errorf("%w: narration script %s is empty", contractx.ErrValidation, scriptURI))
	}

	audio, err := t.synth.Synthesize(ctx, string(script))
	if err != nil {
		return contractx.ToolFailure(contractx.ToolSynthesizeSpeech, err)
	}

	uri, err := t.store.Put(ctx, bucket, prefix+"/"+narrationAudioFile, audio)
	if err != nil {
		return contractx.ToolFailure(contractx.ToolSynthesizeSpeech, err)
	}
	return contractx.ToolSuccess(contractx.ToolSynthesizeSpeech, map[string]any{
		contractx.KeyNarrationAudioURI: uri,
	})
}
