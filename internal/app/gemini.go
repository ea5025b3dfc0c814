package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiCompleter is the production Completer on the Google Gen AI SDK.
type GeminiCompleter struct {
	client *genai.Client
	logger *Logger
}

var _ Completer = (*GeminiCompleter)(nil)

func NewGeminiCompleter(ctx context.Context, apiKey string, logger *Logger) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiCompleter{client: client, logger: logger}, nil
}

func messageParts(msg Message) []*genai.Part {
	var parts []*genai.Part
	for _, a := range msg.Attachments {
		data, err := base64.StdEncoding.DecodeString(a.Data)
		if err != nil {
			continue
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: a.MimeType, Data: data},
		})
	}
	parts = append(parts, &genai.Part{Text: msg.Text})
	return parts
}

func buildContents(history []Message, prompt Message) []*genai.Content {
	var contents []*genai.Content
	for _, m := range history {
		if m.Role == RoleSystem {
			continue
		}
		role := "user"
		if m.Role == RoleModel {
			role = "model"
		}
		contents = append(contents, &genai.Content{Role: role, Parts: messageParts(m)})
	}
	contents = append(contents, &genai.Content{Role: "user", Parts: messageParts(prompt)})
	return contents
}

func (g *GeminiCompleter) chatConfig(opts GenerationOptions) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(opts.Temperature)),
	}
	if opts.TopP > 0 {
		config.TopP = genai.Ptr(float32(opts.TopP))
	}
	if opts.TopK > 0 {
		config.TopK = genai.Ptr(float32(opts.TopK))
	}
	if opts.SystemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: opts.SystemInstruction}},
		}
	}
	if opts.Capability.ThinkingBudget > 0 {
		config.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(opts.Capability.ThinkingBudget),
		}
	}

	switch opts.Capability.Tool {
	case ToolSearch:
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	case ToolMaps:
		config.Tools = []*genai.Tool{{GoogleMaps: &genai.GoogleMaps{}}}
		config.ToolConfig = &genai.ToolConfig{
			RetrievalConfig: &genai.RetrievalConfig{
				LatLng: &genai.LatLng{
					Latitude:  genai.Ptr(opts.Location.Lat),
					Longitude: genai.Ptr(opts.Location.Lng),
				},
			},
		}
	default:
		// Standard models keep search for utility; the coding and
		// translation engines run without tools.
		if opts.Capability.Instruction != InstructionCreatore && opts.Capability.Instruction != InstructionTranslate {
			config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
		}
	}
	return config
}

func convertGrounding(md *genai.GroundingMetadata) *GroundingMetadata {
	if md == nil || len(md.GroundingChunks) == 0 {
		return nil
	}
	out := &GroundingMetadata{}
	for _, chunk := range md.GroundingChunks {
		if chunk.Web == nil {
			continue
		}
		out.Chunks = append(out.Chunks, GroundingChunk{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	if len(out.Chunks) == 0 {
		return nil
	}
	return out
}

func (g *GeminiCompleter) StreamChat(ctx context.Context, history []Message, prompt Message, opts GenerationOptions, fn ChunkFunc) error {
	contents := buildContents(history, prompt)
	config := g.chatConfig(opts)

	for resp, err := range g.client.Models.GenerateContentStream(ctx, opts.Capability.BackendModel, contents, config) {
		if err != nil {
			return err
		}
		if resp == nil {
			continue
		}
		for _, cand := range resp.Candidates {
			chunk := StreamChunk{Grounding: convertGrounding(cand.GroundingMetadata)}
			if cand.Content != nil {
				var text strings.Builder
				for _, part := range cand.Content.Parts {
					if part.Text != "" && !part.Thought {
						text.WriteString(part.Text)
					}
				}
				chunk.Text = text.String()
			}
			if chunk.Text == "" && chunk.Grounding == nil {
				continue
			}
			if err := fn(chunk); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *GeminiCompleter) Generate(ctx context.Context, prompt Message, opts GenerationOptions, progress func(string)) (Attachment, error) {
	if progress == nil {
		progress = func(string) {}
	}
	switch opts.Capability.Kind {
	case KindImage:
		progress("Generating image…")
		return g.generateImage(ctx, prompt.Text, opts)
	case KindAudio:
		progress("Synthesizing audio…")
		return g.generateSpeech(ctx, prompt.Text, opts)
	case KindVideo:
		return g.generateVideo(ctx, prompt.Text, opts, progress)
	}
	return Attachment{}, fmt.Errorf("model %q does not generate media", opts.Capability.BackendModel)
}

func (g *GeminiCompleter) generateImage(ctx context.Context, prompt string, opts GenerationOptions) (Attachment, error) {
	resp, err := g.client.Models.GenerateContent(ctx, opts.Capability.BackendModel, genai.Text(prompt), nil)
	if err != nil {
		return Attachment{}, err
	}
	for _, part := range collectParts(resp) {
		if part.InlineData == nil {
			continue
		}
		mime := part.InlineData.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		return Attachment{
			MimeType: mime,
			Data:     base64.StdEncoding.EncodeToString(part.InlineData.Data),
			Name:     "generated_image.png",
		}, nil
	}
	return Attachment{}, errors.New("no image was generated, the model might have refused the prompt")
}

func (g *GeminiCompleter) generateSpeech(ctx context.Context, prompt string, opts GenerationOptions) (Attachment, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: "Puck"},
			},
		},
	}
	resp, err := g.client.Models.GenerateContent(ctx, opts.Capability.BackendModel, genai.Text(prompt), config)
	if err != nil {
		return Attachment{}, err
	}
	for _, part := range collectParts(resp) {
		if part.InlineData == nil {
			continue
		}
		return Attachment{
			MimeType: "audio/wav",
			Data:     base64.StdEncoding.EncodeToString(pcmToWav(part.InlineData.Data)),
			Name:     "generated_audio.wav",
		}, nil
	}
	return Attachment{}, errors.New("no audio was generated")
}

func (g *GeminiCompleter) generateVideo(ctx context.Context, prompt string, opts GenerationOptions, progress func(string)) (Attachment, error) {
	config := &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		Resolution:     "720p",
		AspectRatio:    "16:9",
	}
	progress("Dreaming up your video…")
	op, err := g.client.Models.GenerateVideos(ctx, opts.Capability.BackendModel, prompt, nil, config)
	if err != nil {
		return Attachment{}, err
	}

	for !op.Done {
		select {
		case <-ctx.Done():
			return Attachment{}, ctx.Err()
		case <-time.After(5 * time.Second):
		}
		progress("Rendering video frames…")
		op, err = g.client.Operations.GetVideosOperation(ctx, op, nil)
		if err != nil {
			return Attachment{}, err
		}
	}

	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 || op.Response.GeneratedVideos[0].Video == nil {
		return Attachment{}, errors.New("video generation completed but no video returned")
	}
	video := op.Response.GeneratedVideos[0].Video
	if len(video.VideoBytes) == 0 {
		if _, err := g.client.Files.Download(ctx, video, nil); err != nil {
			return Attachment{}, err
		}
	}
	return Attachment{
		MimeType: "video/mp4",
		Data:     base64.StdEncoding.EncodeToString(video.VideoBytes),
		Name:     "generated_video.mp4",
	}, nil
}

func (g *GeminiCompleter) GenerateTitle(ctx context.Context, text string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, backendTitle, genai.Text(TitlePrompt(text)), nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

func collectParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	return resp.Candidates[0].Content.Parts
}
