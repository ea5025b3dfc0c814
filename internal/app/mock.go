package app

import (
	"context"
	"strings"
	"sync"
)

// MockCompleter replays scripted chunks instead of calling the API.
// Used by tests and by the --mock flag for offline demos.
type MockCompleter struct {
	mu sync.Mutex

	// Chunks streamed for every StreamChat call. Defaults to a small
	// canned reply when empty.
	Chunks []string

	// Err, when set, is returned after streaming ErrAfter chunks.
	Err      error
	ErrAfter int

	// Title returned by GenerateTitle. Defaults to "Mock Conversation".
	Title string

	// Media returned by Generate.
	Media Attachment

	// Release, when non-nil, gates each chunk: the stream waits for one
	// receive per chunk, letting tests interleave chunks with other
	// operations deterministically.
	Release chan struct{}

	calls    int
	prompts  []string
	lastOpts GenerationOptions
}

func NewMockCompleter(chunks ...string) *MockCompleter {
	return &MockCompleter{Chunks: chunks}
}

// Calls reports how many StreamChat/Generate calls were made.
func (m *MockCompleter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastPrompt returns the text of the most recent prompt, or "".
func (m *MockCompleter) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// LastOptions returns the options of the most recent call.
func (m *MockCompleter) LastOptions() GenerationOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastOpts
}

func (m *MockCompleter) record(prompt string, opts GenerationOptions) {
	m.mu.Lock()
	m.calls++
	m.prompts = append(m.prompts, prompt)
	m.lastOpts = opts
	m.mu.Unlock()
}

func (m *MockCompleter) StreamChat(ctx context.Context, history []Message, prompt Message, opts GenerationOptions, fn ChunkFunc) error {
	m.record(prompt.Text, opts)

	chunks := m.Chunks
	if len(chunks) == 0 {
		chunks = []string{"This is a ", "mock reply."}
	}
	for i, c := range chunks {
		if m.Err != nil && i >= m.ErrAfter {
			return m.Err
		}
		if m.Release != nil {
			select {
			case <-m.Release:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := fn(StreamChunk{Text: c}); err != nil {
			return err
		}
	}
	if m.Err != nil && m.ErrAfter >= len(chunks) {
		return m.Err
	}
	return nil
}

func (m *MockCompleter) Generate(ctx context.Context, prompt Message, opts GenerationOptions, progress func(string)) (Attachment, error) {
	m.record(prompt.Text, opts)
	if progress != nil {
		progress("Generating " + string(opts.Capability.Kind) + "…")
	}
	if m.Release != nil {
		select {
		case <-m.Release:
		case <-ctx.Done():
			return Attachment{}, ctx.Err()
		}
	}
	if m.Err != nil {
		return Attachment{}, m.Err
	}
	if m.Media.MimeType != "" {
		return m.Media, nil
	}
	return Attachment{MimeType: "image/png", Data: "bW9jaw==", Name: "mock.png"}, nil
}

func (m *MockCompleter) GenerateTitle(ctx context.Context, text string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if m.Title != "" {
		return m.Title, nil
	}
	return "Mock Conversation", nil
}

// joined returns the full text the default chunks produce. Test helper.
func (m *MockCompleter) joined() string {
	chunks := m.Chunks
	if len(chunks) == 0 {
		chunks = []string{"This is a ", "mock reply."}
	}
	return strings.Join(chunks, "")
}
