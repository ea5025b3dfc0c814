package app

import (
	"context"
	"strings"
)

// LatLng is a WGS84 coordinate pair, used to ground maps-enabled models.
type LatLng struct {
	Lat float64
	Lng float64
}

// DefaultLocation is used when no location provider is configured.
var DefaultLocation = LatLng{Lat: 40.7128, Lng: -74.0060}

// LocationProvider supplies the coordinate for location-aware models.
// The second return reports whether a real location was available;
// callers fall back to DefaultLocation otherwise.
type LocationProvider interface {
	Location(ctx context.Context) (LatLng, bool)
}

// StaticLocation is a LocationProvider pinned to one coordinate.
type StaticLocation LatLng

func (s StaticLocation) Location(context.Context) (LatLng, bool) {
	return LatLng(s), true
}

// GenerationOptions carries everything a backend needs beyond the
// transcript itself.
type GenerationOptions struct {
	Capability        Capability
	Temperature       float64
	TopP              float64 // zero means backend default
	TopK              float64 // zero means backend default
	SystemInstruction string
	Location          LatLng
}

// StreamChunk is one increment of a streamed reply.
type StreamChunk struct {
	Text      string
	Grounding *GroundingMetadata
}

// ChunkFunc receives stream increments in order. Returning an error
// aborts the stream and surfaces the error from StreamChat.
type ChunkFunc func(StreamChunk) error

// Completer is the backend boundary. GeminiCompleter talks to the real
// API; MockCompleter replays scripts in tests.
type Completer interface {
	// StreamChat streams a text reply for prompt given the prior
	// transcript. Media-capable requests go through Generate instead.
	StreamChat(ctx context.Context, history []Message, prompt Message, opts GenerationOptions, fn ChunkFunc) error

	// Generate produces a single media attachment (image, audio or
	// video per opts.Capability.Kind) for a prompt. progress receives a
	// handful of human-readable status lines while the request (or the
	// video operation poll) is in flight; it may be nil.
	Generate(ctx context.Context, prompt Message, opts GenerationOptions, progress func(string)) (Attachment, error)

	// GenerateTitle names a conversation from its opening text.
	GenerateTitle(ctx context.Context, text string) (string, error)
}

// FriendlyError rewords backend failures for the transcript. Rate
// limit exhaustion gets a specific recovery hint; everything else
// passes through.
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(msg, "429") ||
		strings.Contains(lower, "quota") ||
		strings.Contains(lower, "resource_exhausted") ||
		strings.Contains(lower, "rate limit") {
		return "The AI is currently at maximum capacity (Rate Limit Exceeded). Please try using a 'Flash' model or wait a minute before retrying."
	}
	return msg
}
