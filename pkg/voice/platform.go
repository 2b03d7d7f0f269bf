package voice

import (
	"context"
	"sync"
)

// Platform speech events, translated into a small closed set of internal
// messages so the dispatcher's transition logic stays synchronous and
// testable without a real speech stack behind it.

type RecognizerEventKind string

const (
	EventTranscript RecognizerEventKind = "TRANSCRIPT"
	EventError      RecognizerEventKind = "ERROR"
	EventEnded      RecognizerEventKind = "ENDED"
)

// Recognition error codes follow the Web Speech API. Permission denial is
// fatal to the session; everything else is treated as transient.
const (
	ErrCodeNotAllowed        = "not-allowed"
	ErrCodeServiceNotAllowed = "service-not-allowed"
)

type RecognizerEvent struct {
	Kind       RecognizerEventKind
	Transcript string
	Final      bool
	ErrCode    string
}

// Recognizer is the platform speech-recognition resource. Exactly one may be
// active at a time; only the Dispatcher touches it.
type Recognizer interface {
	Start() error
	Stop()
	Events() <-chan RecognizerEvent
}

// RecognizerFactory builds a fresh recognition resource. Used for the one
// allowed from-scratch reinitialization when a restart fails.
type RecognizerFactory func() (Recognizer, error)

// Synthesizer emits spoken feedback. There is no utterance queue: starting a
// new utterance is expected to be preceded by CancelAll, so rapid commands
// audibly interrupt one another.
type Synthesizer interface {
	Speak(text string)
	CancelAll()
}

// UI receives the navigation/action effects of matched commands.
type UI interface {
	SelectTab(target string)
	SetPanel(panel string, open bool)
	ShowProfile()
}

// AuthProvider is the external identity collaborator. Only its sign-out
// capability is consumed here.
type AuthProvider interface {
	SignOut(ctx context.Context) error
}

// QueryHandler answers free-form spoken questions. Implementations must be
// non-failing: on any backend problem they return a spoken apology instead.
type QueryHandler interface {
	ProcessVoiceQuery(ctx context.Context, query string) string
}

// ChannelRecognizer is a Recognizer fed externally, either by the REST facade
// (the browser pushes SpeechRecognition transcripts to it) or by tests.
type ChannelRecognizer struct {
	mu      sync.Mutex
	running bool
	events  chan RecognizerEvent
}

func NewChannelRecognizer() *ChannelRecognizer {
	return &ChannelRecognizer{
		events: make(chan RecognizerEvent, 16),
	}
}

func (r *ChannelRecognizer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = true
	return nil
}

func (r *ChannelRecognizer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
}

func (r *ChannelRecognizer) Events() <-chan RecognizerEvent {
	return r.events
}

// PushTranscript feeds a transcript segment. Segments arriving while the
// recognizer is stopped are dropped, mirroring a dead platform session.
func (r *ChannelRecognizer) PushTranscript(text string, final bool) {
	r.mu.Lock()
	running := r.running
	r.mu.Unlock()
	if !running {
		return
	}
	r.push(RecognizerEvent{Kind: EventTranscript, Transcript: text, Final: final})
}

func (r *ChannelRecognizer) PushError(code string) {
	r.push(RecognizerEvent{Kind: EventError, ErrCode: code})
}

func (r *ChannelRecognizer) PushEnded() {
	r.push(RecognizerEvent{Kind: EventEnded})
}

// push is non-blocking; a full buffer drops the event rather than stalling
// the producer.
func (r *ChannelRecognizer) push(ev RecognizerEvent) {
	select {
	case r.events <- ev:
	default:
	}
}
