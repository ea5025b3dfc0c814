package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// GenEventKind labels coordinator progress notifications.
type GenEventKind string

const (
	GenStarted  GenEventKind = "started"
	GenChunk    GenEventKind = "chunk"
	GenFinished GenEventKind = "finished"
	GenTitled   GenEventKind = "titled"
)

// GenEvent is pushed to the UI as a generation progresses. Thinking is
// true from start until the first chunk arrives.
type GenEvent struct {
	Kind      GenEventKind
	SessionID string
	Thinking  bool
}

// Operation is a handle on one in-flight generation. Exactly one
// operation is live at a time; starting a new one cancels the old one,
// and the old one's remaining chunks are discarded rather than written
// over the new transcript.
type Operation struct {
	id        uint64
	SessionID string
	cancel    context.CancelFunc
	done      chan struct{}
}

// Done is closed when the operation has fully finished, including its
// transcript cleanup.
func (op *Operation) Done() <-chan struct{} { return op.done }

// Coordinator multiplexes send, edit, regenerate and stop over a single
// streaming pipeline against the store.
type Coordinator struct {
	store     *Store
	completer Completer
	logger    *Logger
	location  LocationProvider
	code      CodeOptions
	notify    func(GenEvent)

	mu      sync.Mutex
	current *Operation
	nextID  uint64
}

// NewCoordinator wires the pipeline. notify may be nil; location may be
// nil, in which case maps-enabled models use DefaultLocation.
func NewCoordinator(store *Store, completer Completer, logger *Logger, location LocationProvider, notify func(GenEvent)) *Coordinator {
	if notify == nil {
		notify = func(GenEvent) {}
	}
	return &Coordinator{
		store:     store,
		completer: completer,
		logger:    logger,
		location:  location,
		notify:    notify,
	}
}

// SetCodeOptions sets the flagship-model code generation tuning.
func (c *Coordinator) SetCodeOptions(code CodeOptions) {
	c.mu.Lock()
	c.code = code
	c.mu.Unlock()
}

// SetLocation installs the provider consulted by maps-enabled models.
func (c *Coordinator) SetLocation(p LocationProvider) {
	c.mu.Lock()
	c.location = p
	c.mu.Unlock()
}

// Busy reports whether a generation is in flight.
func (c *Coordinator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// Stop cancels the in-flight generation, if any. The canceled
// generation keeps the text it has streamed so far and appends no
// error. The operation is detached and GenFinished fires here, before
// the transport acknowledges the cancel, so the UI drops its loading
// state without waiting on the network.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	op := c.current
	if op != nil {
		c.current = nil
	}
	c.mu.Unlock()
	if op != nil {
		op.cancel()
		c.notify(GenEvent{Kind: GenFinished, SessionID: op.SessionID})
	}
}

// Send streams a reply to a new user message in the given session.
func (c *Coordinator) Send(sessionID, text string, attachments []Attachment) (*Operation, error) {
	sess, ok := c.store.Session(sessionID)
	if !ok {
		return nil, fmt.Errorf("unknown session %q", sessionID)
	}

	prompt := Message{
		ID:          uuid.NewString(),
		Role:        RoleUser,
		Text:        text,
		Timestamp:   time.Now(),
		Attachments: attachments,
	}

	firstMessage := len(sess.Messages) == 0
	op := c.begin(sessionID, sess.Messages, prompt)
	if firstMessage {
		go c.titleSession(sessionID, text)
	}
	return op, nil
}

// EditAndResend rewrites a prior user message and regenerates from it.
// The edited message gets a fresh id and everything after it is
// discarded.
func (c *Coordinator) EditAndResend(sessionID, messageID, newText string) (*Operation, error) {
	sess, ok := c.store.Session(sessionID)
	if !ok {
		return nil, fmt.Errorf("unknown session %q", sessionID)
	}

	idx := -1
	for i, m := range sess.Messages {
		if m.ID == messageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("unknown message %q", messageID)
	}
	orig := sess.Messages[idx]
	if orig.Role != RoleUser {
		return nil, errors.New("only user messages can be edited")
	}

	prompt := Message{
		ID:          uuid.NewString(),
		Role:        RoleUser,
		Text:        newText,
		Timestamp:   time.Now(),
		Attachments: orig.Attachments,
	}
	history := append([]Message(nil), sess.Messages[:idx]...)
	return c.begin(sessionID, history, prompt), nil
}

// Regenerate discards the trailing model reply and streams a new one
// for the last user message.
func (c *Coordinator) Regenerate(sessionID string) (*Operation, error) {
	sess, ok := c.store.Session(sessionID)
	if !ok {
		return nil, fmt.Errorf("unknown session %q", sessionID)
	}

	msgs := sess.Messages
	if n := len(msgs); n > 0 && msgs[n-1].Role == RoleModel {
		msgs = msgs[:n-1]
	}
	if len(msgs) == 0 || msgs[len(msgs)-1].Role != RoleUser {
		return nil, errors.New("nothing to regenerate")
	}

	prompt := msgs[len(msgs)-1]
	history := append([]Message(nil), msgs[:len(msgs)-1]...)
	return c.begin(sessionID, history, prompt), nil
}

// begin installs a new current operation, cancelling any predecessor,
// and launches the stream.
func (c *Coordinator) begin(sessionID string, history []Message, prompt Message) *Operation {
	ctx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	if c.current != nil {
		c.current.cancel()
	}
	c.nextID++
	op := &Operation{
		id:        c.nextID,
		SessionID: sessionID,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	c.current = op
	code := c.code
	c.mu.Unlock()

	go c.run(ctx, op, sessionID, history, prompt, code)
	return op
}


func (c *Coordinator) finish(op *Operation) {
	c.mu.Lock()
	wasCurrent := c.current == op
	if wasCurrent {
		c.current = nil
	}
	c.mu.Unlock()
	close(op.done)
	// A stopped or superseded operation already announced its end (or
	// was replaced by a new GenStarted); only a live one reports here.
	if wasCurrent {
		c.notify(GenEvent{Kind: GenFinished, SessionID: op.SessionID})
	}
}

func (c *Coordinator) run(ctx context.Context, op *Operation, sessionID string, history []Message, prompt Message, code CodeOptions) {
	defer c.finish(op)

	sess, ok := c.store.Session(sessionID)
	if !ok {
		return
	}
	settings := c.store.Settings()
	resolved := ResolveModel(sess.ModelID)

	bot := Message{
		ID:        uuid.NewString(),
		Role:      RoleModel,
		Timestamp: time.Now(),
	}

	// The transcript shows the user message and an empty reply before
	// any network work happens.
	base := append(append([]Message(nil), history...), prompt)
	c.apply(op, append(append([]Message(nil), base...), bot))
	c.notify(GenEvent{Kind: GenStarted, SessionID: sessionID, Thinking: true})

	opts := GenerationOptions{
		Capability:        resolved,
		Temperature:       settings.Temperature,
		TopP:              settings.TopP,
		TopK:              settings.TopK,
		SystemInstruction: BuildSystemInstruction(sess.ModelID, resolved.Instruction, settings.SystemInstruction, code),
		Location:          DefaultLocation,
	}
	c.mu.Lock()
	provider := c.location
	c.mu.Unlock()
	if provider != nil {
		if loc, ok := provider.Location(ctx); ok {
			opts.Location = loc
		}
	}

	if resolved.Kind != KindText {
		c.runGenerate(ctx, op, base, bot, prompt, opts)
		return
	}

	var full strings.Builder
	var grounding *GroundingMetadata
	first := true

	err := c.completer.StreamChat(ctx, history, prompt, opts, func(chunk StreamChunk) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		full.WriteString(chunk.Text)
		if chunk.Grounding != nil {
			grounding = chunk.Grounding
		}
		bot.Text = full.String()
		bot.Grounding = grounding
		c.apply(op, append(append([]Message(nil), base...), bot))
		if first {
			first = false
			c.notify(GenEvent{Kind: GenChunk, SessionID: sessionID, Thinking: false})
		} else {
			c.notify(GenEvent{Kind: GenChunk, SessionID: sessionID})
		}
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) && ctx.Err() == nil {
		c.logError("stream failed", err)
		bot.Text = full.String() + "\n\n**System Error:** " + FriendlyError(err)
		c.apply(op, append(append([]Message(nil), base...), bot))
	}
}

// runGenerate handles the image, audio and video models: one request,
// one attachment, no streaming. The backend reports coarse progress
// while the request is in flight; each line lands in the placeholder
// reply so the user sees something move during a long render.
func (c *Coordinator) runGenerate(ctx context.Context, op *Operation, base []Message, bot Message, prompt Message, opts GenerationOptions) {
	att, err := c.completer.Generate(ctx, prompt, opts, func(status string) {
		if ctx.Err() != nil {
			return
		}
		bot.Text = status
		c.apply(op, append(append([]Message(nil), base...), bot))
		c.notify(GenEvent{Kind: GenChunk, SessionID: op.SessionID})
	})
	switch {
	case ctx.Err() != nil:
		return
	case err != nil:
		c.logError("generate failed", err)
		bot.Text = generateFailureText(opts.Capability.Kind, err)
	default:
		bot.Text = generateSuccessText(opts.Capability.Kind)
		bot.Attachments = []Attachment{att}
	}
	c.apply(op, append(append([]Message(nil), base...), bot))
	c.notify(GenEvent{Kind: GenChunk, SessionID: op.SessionID})
}

// apply writes a transcript on behalf of op, unless op has been
// superseded. The ownership check and the store write happen under one
// guard, so a stale operation can never slip a write in between a
// successor's check and its first transcript update.
func (c *Coordinator) apply(op *Operation, msgs []Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != op {
		return
	}
	c.store.ReplaceMessages(op.SessionID, msgs)
}

func generateSuccessText(kind CapabilityKind) string {
	switch kind {
	case KindImage:
		return "Image generated."
	case KindAudio:
		return "Audio generated successfully."
	case KindVideo:
		return "Video generated successfully."
	}
	return ""
}

func generateFailureText(kind CapabilityKind, err error) string {
	switch kind {
	case KindImage:
		return "Image generation failed: " + FriendlyError(err)
	case KindAudio:
		return "Audio generation failed: " + FriendlyError(err)
	case KindVideo:
		return "Video generation failed: " + FriendlyError(err)
	}
	return "\n\n**System Error:** " + FriendlyError(err)
}

func (c *Coordinator) titleSession(sessionID, firstMessage string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	title, err := c.completer.GenerateTitle(ctx, firstMessage)
	title = strings.TrimSpace(title)
	if err != nil || title == "" {
		title = "New Conversation"
	}
	c.store.SetTitle(sessionID, title)
	c.notify(GenEvent{Kind: GenTitled, SessionID: sessionID})
}

func (c *Coordinator) logError(msg string, err error) {
	if c.logger != nil {
		c.logger.Error(msg, map[string]interface{}{"error": err.Error()})
	}
}
