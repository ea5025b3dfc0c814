package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type coordFixture struct {
	store  *Store
	mock   *MockCompleter
	coord  *Coordinator
	events chan GenEvent
}

func newCoordFixture(t *testing.T, mock *MockCompleter) *coordFixture {
	t.Helper()
	f := &coordFixture{
		store:  hydratedStore(t, nil),
		mock:   mock,
		events: make(chan GenEvent, 128),
	}
	f.coord = NewCoordinator(f.store, mock, nil, nil, func(e GenEvent) {
		select {
		case f.events <- e:
		default:
		}
	})
	return f
}

func (f *coordFixture) waitEvent(t *testing.T, kind GenEventKind) GenEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-f.events:
			if e.Kind == kind {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", kind)
		}
	}
}

func waitDone(t *testing.T, op *Operation) {
	t.Helper()
	select {
	case <-op.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("operation did not finish")
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestCoordinatorSendStreamsReply(t *testing.T) {
	f := newCoordFixture(t, NewMockCompleter("Hello", ", ", "world."))
	id := f.store.CreateSession("Hynix 1.3 Pro")

	op, err := f.coord.Send(id, "hi there", nil)
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, op)

	sess, _ := f.store.Session(id)
	if len(sess.Messages) != 2 {
		t.Fatalf("transcript = %d messages, want 2", len(sess.Messages))
	}
	if sess.Messages[0].Role != RoleUser || sess.Messages[0].Text != "hi there" {
		t.Fatalf("user message = %+v", sess.Messages[0])
	}
	if sess.Messages[1].Role != RoleModel || sess.Messages[1].Text != "Hello, world." {
		t.Fatalf("model message = %+v", sess.Messages[1])
	}
	if f.coord.Busy() {
		t.Fatal("coordinator still busy after completion")
	}
}

func TestCoordinatorPlaceholderBeforeFirstChunk(t *testing.T) {
	mock := NewMockCompleter("only chunk")
	mock.Release = make(chan struct{})
	f := newCoordFixture(t, mock)
	id := f.store.CreateSession("Hynix 1.3 Pro")

	op, err := f.coord.Send(id, "hi", nil)
	if err != nil {
		t.Fatal(err)
	}

	started := f.waitEvent(t, GenStarted)
	if !started.Thinking {
		t.Fatal("start event should carry thinking state")
	}
	waitFor(t, "placeholder transcript", func() bool {
		sess, _ := f.store.Session(id)
		return len(sess.Messages) == 2 && sess.Messages[1].Role == RoleModel && sess.Messages[1].Text == ""
	})

	mock.Release <- struct{}{}
	chunk := f.waitEvent(t, GenChunk)
	if chunk.Thinking {
		t.Fatal("first chunk should clear thinking state")
	}
	waitDone(t, op)
}

func TestCoordinatorStopKeepsPartialText(t *testing.T) {
	mock := NewMockCompleter("partial ", "rest never arrives")
	mock.Release = make(chan struct{})
	f := newCoordFixture(t, mock)
	id := f.store.CreateSession("Hynix 1.3 Pro")

	op, err := f.coord.Send(id, "hi", nil)
	if err != nil {
		t.Fatal(err)
	}

	mock.Release <- struct{}{}
	waitFor(t, "first chunk in transcript", func() bool {
		sess, _ := f.store.Session(id)
		return len(sess.Messages) == 2 && sess.Messages[1].Text == "partial "
	})

	f.coord.Stop()
	waitDone(t, op)

	sess, _ := f.store.Session(id)
	if got := sess.Messages[1].Text; got != "partial " {
		t.Fatalf("stopped transcript = %q, want partial text", got)
	}
	if strings.Contains(sess.Messages[1].Text, "System Error") {
		t.Fatal("stop must not append an error")
	}
}

func TestCoordinatorErrorAppendsToTranscript(t *testing.T) {
	mock := NewMockCompleter("some text ")
	mock.Err = errors.New("backend exploded")
	mock.ErrAfter = 1
	f := newCoordFixture(t, mock)
	id := f.store.CreateSession("Hynix 1.3 Pro")

	op, err := f.coord.Send(id, "hi", nil)
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, op)

	sess, _ := f.store.Session(id)
	want := "some text \n\n**System Error:** backend exploded"
	if got := sess.Messages[1].Text; got != want {
		t.Fatalf("transcript = %q, want %q", got, want)
	}
}

func TestCoordinatorRateLimitGetsFriendlyError(t *testing.T) {
	mock := NewMockCompleter()
	mock.Err = errors.New("googleapi: Error 429: quota exceeded")
	f := newCoordFixture(t, mock)
	id := f.store.CreateSession("Hynix 1.3 Pro")

	op, err := f.coord.Send(id, "hi", nil)
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, op)

	sess, _ := f.store.Session(id)
	if !strings.Contains(sess.Messages[1].Text, "maximum capacity (Rate Limit Exceeded)") {
		t.Fatalf("transcript = %q", sess.Messages[1].Text)
	}
}

func TestCoordinatorNewSendSupersedesOld(t *testing.T) {
	mock := NewMockCompleter("first reply chunk")
	mock.Release = make(chan struct{}, 8)
	f := newCoordFixture(t, mock)
	id := f.store.CreateSession("Hynix 1.3 Pro")

	op1, err := f.coord.Send(id, "first", nil)
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, "first placeholder", func() bool {
		sess, _ := f.store.Session(id)
		return len(sess.Messages) == 2
	})

	op2, err := f.coord.Send(id, "second", nil)
	if err != nil {
		t.Fatal(err)
	}

	// Let any straggler chunks from the superseded stream through.
	mock.Release <- struct{}{}
	mock.Release <- struct{}{}
	waitDone(t, op1)
	waitDone(t, op2)

	sess, _ := f.store.Session(id)
	last := sess.Messages[len(sess.Messages)-2]
	if last.Role != RoleUser || last.Text != "second" {
		t.Fatalf("transcript owned by stale operation: %+v", sess.Messages)
	}
}

func TestCoordinatorEditTruncatesAndReissues(t *testing.T) {
	f := newCoordFixture(t, NewMockCompleter("fresh reply"))
	id := f.store.CreateSession("Hynix 1.3 Pro")
	f.store.ReplaceMessages(id, []Message{
		{ID: "u1", Role: RoleUser, Text: "question one"},
		{ID: "m1", Role: RoleModel, Text: "answer one"},
		{ID: "u2", Role: RoleUser, Text: "question two"},
		{ID: "m2", Role: RoleModel, Text: "answer two"},
	})

	op, err := f.coord.EditAndResend(id, "u1", "edited question")
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, op)

	sess, _ := f.store.Session(id)
	if len(sess.Messages) != 2 {
		t.Fatalf("edit should truncate everything after, got %d messages", len(sess.Messages))
	}
	edited := sess.Messages[0]
	if edited.Text != "edited question" || edited.ID == "u1" {
		t.Fatalf("edited message should carry new id and text: %+v", edited)
	}
	if sess.Messages[1].Text != "fresh reply" {
		t.Fatalf("reply = %q", sess.Messages[1].Text)
	}
	if got := f.mock.LastPrompt(); got != "edited question" {
		t.Fatalf("prompt = %q", got)
	}
}

func TestCoordinatorEditRejectsModelMessage(t *testing.T) {
	f := newCoordFixture(t, NewMockCompleter())
	id := f.store.CreateSession("Hynix 1.3 Pro")
	f.store.ReplaceMessages(id, []Message{
		{ID: "u1", Role: RoleUser, Text: "q"},
		{ID: "m1", Role: RoleModel, Text: "a"},
	})

	if _, err := f.coord.EditAndResend(id, "m1", "nope"); err == nil {
		t.Fatal("expected error editing a model message")
	}
}

func TestCoordinatorRegenerate(t *testing.T) {
	f := newCoordFixture(t, NewMockCompleter("take two"))
	id := f.store.CreateSession("Hynix 1.3 Pro")
	f.store.ReplaceMessages(id, []Message{
		{ID: "u1", Role: RoleUser, Text: "the question"},
		{ID: "m1", Role: RoleModel, Text: "bad answer"},
	})

	op, err := f.coord.Regenerate(id)
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, op)

	sess, _ := f.store.Session(id)
	if len(sess.Messages) != 2 {
		t.Fatalf("transcript = %d messages", len(sess.Messages))
	}
	if sess.Messages[1].Text != "take two" {
		t.Fatalf("reply = %q", sess.Messages[1].Text)
	}
	if got := f.mock.LastPrompt(); got != "the question" {
		t.Fatalf("prompt = %q", got)
	}
}

func TestCoordinatorRegenerateEmptySession(t *testing.T) {
	f := newCoordFixture(t, NewMockCompleter())
	id := f.store.CreateSession("Hynix 1.3 Pro")
	if _, err := f.coord.Regenerate(id); err == nil {
		t.Fatal("expected error regenerating an empty session")
	}
}

func TestCoordinatorMediaModelAttaches(t *testing.T) {
	mock := NewMockCompleter()
	mock.Media = Attachment{MimeType: "image/png", Data: "aW1n", Name: "render.png"}
	f := newCoordFixture(t, mock)
	id := f.store.CreateSession("Plaza 1.0 Pro")

	op, err := f.coord.Send(id, "a red bicycle", nil)
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, op)

	sess, _ := f.store.Session(id)
	bot := sess.Messages[1]
	if len(bot.Attachments) != 1 || bot.Attachments[0].MimeType != "image/png" {
		t.Fatalf("expected image attachment, got %+v", bot)
	}
}

func TestCoordinatorForwardsSamplingSettings(t *testing.T) {
	f := newCoordFixture(t, NewMockCompleter("ok"))
	settings := f.store.Settings()
	settings.Temperature = 0.4
	settings.TopP = 0.9
	settings.TopK = 40
	f.store.UpdateSettings(settings)
	id := f.store.CreateSession("Hynix 1.3 Pro")

	op, err := f.coord.Send(id, "hi", nil)
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, op)

	opts := f.mock.LastOptions()
	if opts.Temperature != 0.4 || opts.TopP != 0.9 || opts.TopK != 40 {
		t.Fatalf("options = %+v", opts)
	}
}

// stallingCompleter blocks the stream until unblocked, paying no
// attention to cancellation. It models a transport that is slow to
// notice a dead connection.
type stallingCompleter struct {
	MockCompleter
	unblock chan struct{}
}

func (s *stallingCompleter) StreamChat(ctx context.Context, history []Message, prompt Message, opts GenerationOptions, fn ChunkFunc) error {
	<-s.unblock
	return ctx.Err()
}

func TestCoordinatorStopReportsFinishedImmediately(t *testing.T) {
	sc := &stallingCompleter{unblock: make(chan struct{})}
	store := hydratedStore(t, nil)
	events := make(chan GenEvent, 128)
	coord := NewCoordinator(store, sc, nil, nil, func(e GenEvent) {
		select {
		case events <- e:
		default:
		}
	})
	id := store.CreateSession("Hynix 1.3 Pro")

	op, err := coord.Send(id, "hi", nil)
	if err != nil {
		t.Fatal(err)
	}

	coord.Stop()

	// The finished event arrives while the transport is still stuck,
	// and the coordinator is already free to take new work.
	deadline := time.After(2 * time.Second)
	for done := false; !done; {
		select {
		case e := <-events:
			if e.Kind == GenFinished {
				done = true
			}
		case <-deadline:
			t.Fatal("no finished event before the transport returned")
		}
	}
	if coord.Busy() {
		t.Fatal("coordinator busy after stop")
	}

	close(sc.unblock)
	waitDone(t, op)

	// The late transport return must not announce a second finish.
	for {
		select {
		case e := <-events:
			if e.Kind == GenFinished {
				t.Fatal("stopped operation finished twice")
			}
		default:
			return
		}
	}
}

func TestCoordinatorMediaProgressFillsPlaceholder(t *testing.T) {
	mock := NewMockCompleter()
	mock.Media = Attachment{MimeType: "image/png", Data: "aW1n", Name: "render.png"}
	mock.Release = make(chan struct{})
	f := newCoordFixture(t, mock)
	id := f.store.CreateSession("Plaza 1.0 Pro")

	op, err := f.coord.Send(id, "a red bicycle", nil)
	if err != nil {
		t.Fatal(err)
	}

	// While the backend renders, the reply shows a status line.
	waitFor(t, "progress text in placeholder", func() bool {
		sess, _ := f.store.Session(id)
		return len(sess.Messages) == 2 && sess.Messages[1].Text == "Generating image…"
	})

	mock.Release <- struct{}{}
	waitDone(t, op)

	sess, _ := f.store.Session(id)
	bot := sess.Messages[1]
	if bot.Text != "Image generated." {
		t.Fatalf("final text = %q", bot.Text)
	}
	if len(bot.Attachments) != 1 {
		t.Fatalf("attachments = %+v", bot.Attachments)
	}
}

func TestCoordinatorTitlesFirstMessageOnly(t *testing.T) {
	mock := NewMockCompleter("reply")
	mock.Title = "Bicycle Shopping Help"
	f := newCoordFixture(t, mock)
	id := f.store.CreateSession("Hynix 1.3 Pro")

	op, err := f.coord.Send(id, "help me buy a bicycle", nil)
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, op)
	f.waitEvent(t, GenTitled)

	sess, _ := f.store.Session(id)
	if sess.Title != "Bicycle Shopping Help" {
		t.Fatalf("title = %q", sess.Title)
	}

	op, err = f.coord.Send(id, "a second question", nil)
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, op)

	for {
		select {
		case e := <-f.events:
			if e.Kind == GenTitled {
				t.Fatal("second message must not re-title the session")
			}
		default:
			return
		}
	}
}

func TestCoordinatorTitleSurvivesSessionDeletion(t *testing.T) {
	mock := NewMockCompleter("reply")
	mock.Title = "Doomed"
	f := newCoordFixture(t, mock)
	id := f.store.CreateSession("Hynix 1.3 Pro")

	op, err := f.coord.Send(id, "hello", nil)
	if err != nil {
		t.Fatal(err)
	}
	f.store.DeleteSession(id)
	waitDone(t, op)
	f.waitEvent(t, GenTitled)

	if _, ok := f.store.Session(id); ok {
		t.Fatal("session should stay deleted")
	}
}
