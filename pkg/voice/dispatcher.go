package voice

import (
	"context"
	"sync"
	"time"

	"cellexis-assistant/internal/pkg/logger"
	"cellexis-assistant/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	defaultSettleDelay  = 1200 * time.Millisecond
	defaultRestartDelay = 500 * time.Millisecond
)

// Dispatcher owns the process-wide voice session and the active recognition
// resource. UI surfaces request transitions through Activate/Deactivate/
// Toggle; they never touch the Recognizer directly.
//
// State machine: Idle -> Listening -> Processing -> Listening -> ... -> Idle.
// A single goroutine consumes recognizer events, so transitions are ordered.
type Dispatcher struct {
	mu      sync.Mutex
	session Session

	table      *CommandTable
	factory    RecognizerFactory
	recognizer Recognizer
	pumpQuit   chan struct{}

	synth   Synthesizer
	ui      UI
	auth    AuthProvider
	queries QueryHandler

	publisher message.Publisher
	logger    logger.ILogger

	// SettleDelay is the pause after command interpretation before new
	// transcripts are accepted again, to avoid re-triggering on trailing
	// audio. RestartDelay spaces out automatic recognizer restarts.
	SettleDelay  time.Duration
	RestartDelay time.Duration

	reinitialized bool

	incoming chan RecognizerEvent
	settleCh chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

func NewDispatcher(
	table *CommandTable,
	factory RecognizerFactory,
	synth Synthesizer,
	ui UI,
	auth AuthProvider,
	queries QueryHandler,
	publisher message.Publisher,
	log logger.ILogger,
) *Dispatcher {
	return &Dispatcher{
		session:      Session{Phase: PhaseIdle},
		table:        table,
		factory:      factory,
		synth:        synth,
		ui:           ui,
		auth:         auth,
		queries:      queries,
		publisher:    publisher,
		logger:       log,
		SettleDelay:  defaultSettleDelay,
		RestartDelay: defaultRestartDelay,
		incoming:     make(chan RecognizerEvent, 16),
		settleCh:     make(chan struct{}, 1),
		stop:         make(chan struct{}),
	}
}

// Start launches the event loop. Call Close on teardown.
func (d *Dispatcher) Start() {
	go d.run()
}

// Close releases the recognition resource and cancels any pending speech.
// Safe to call more than once.
func (d *Dispatcher) Close() {
	d.stopOnce.Do(func() {
		close(d.stop)
	})

	d.mu.Lock()
	if d.recognizer != nil {
		d.recognizer.Stop()
	}
	d.session = Session{Phase: PhaseIdle}
	d.mu.Unlock()

	d.synth.CancelAll()
}

// State returns a snapshot of the voice session.
func (d *Dispatcher) State() Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session
}

// Activate transitions Idle -> Listening. Re-activation while already
// active is a no-op.
func (d *Dispatcher) Activate() error {
	d.mu.Lock()
	if d.session.Phase != PhaseIdle {
		d.mu.Unlock()
		return nil
	}

	if d.recognizer == nil {
		rec, err := d.factory()
		if err != nil {
			d.mu.Unlock()
			d.logger.Error("Voice", "Failed to create recognizer", map[string]interface{}{"error": err.Error()})
			return err
		}
		d.attachRecognizerLocked(rec)
	}

	if err := d.recognizer.Start(); err != nil {
		d.mu.Unlock()
		d.logger.Error("Voice", "Failed to start recognizer", map[string]interface{}{"error": err.Error()})
		return err
	}

	d.session.Phase = PhaseListening
	d.reinitialized = false
	d.mu.Unlock()

	d.say("Voice assistant activated. I'm listening.")
	d.publish(events.NewVoiceSessionChanged(PhaseListening))
	d.logger.Info("Voice", "Session activated", nil)
	return nil
}

// Deactivate transitions any active phase -> Idle. A no-op while Idle.
func (d *Dispatcher) Deactivate() {
	d.mu.Lock()
	if d.session.Phase == PhaseIdle {
		d.mu.Unlock()
		return
	}
	if d.recognizer != nil {
		d.recognizer.Stop()
	}
	d.session = Session{Phase: PhaseIdle}
	d.mu.Unlock()

	d.synth.CancelAll()
	d.synth.Speak("Voice assistant deactivated.")
	d.publish(events.NewVoiceSessionChanged(PhaseIdle))
	d.logger.Info("Voice", "Session deactivated", nil)
}

// Toggle flips between Idle and Listening (keyboard shortcut entry point).
func (d *Dispatcher) Toggle() {
	if d.State().Active() {
		d.Deactivate()
	} else {
		d.Activate()
	}
}

func (d *Dispatcher) run() {
	for {
		select {
		case <-d.stop:
			return
		case ev := <-d.incoming:
			d.handleEvent(ev)
		case <-d.settleCh:
			d.finishSettle()
		}
	}
}

func (d *Dispatcher) handleEvent(ev RecognizerEvent) {
	switch ev.Kind {
	case EventTranscript:
		d.handleTranscript(ev)
	case EventError:
		d.handleRecognitionError(ev.ErrCode)
	case EventEnded:
		d.handleRecognitionEnded()
	}
}

func (d *Dispatcher) handleTranscript(ev RecognizerEvent) {
	if !ev.Final {
		return // interim segments never drive commands
	}

	d.mu.Lock()
	phase := d.session.Phase
	d.mu.Unlock()

	switch phase {
	case PhaseProcessing:
		// Single-flight: at most one command is interpreted at a time.
		d.logger.Debug("Voice", "Transcript dropped while processing", map[string]interface{}{
			"transcript": ev.Transcript,
		})
		return

	case PhaseIdle:
		if d.table.Match(ev.Transcript, false).Kind == MatchWake {
			d.Activate()
		}
		return

	case PhaseListening:
		d.mu.Lock()
		d.session.Phase = PhaseProcessing
		d.session.LastTranscript = ev.Transcript
		d.mu.Unlock()

		d.interpret(ev.Transcript)

		// Settle regardless of outcome; commands are fire-and-forget.
		time.AfterFunc(d.SettleDelay, func() {
			select {
			case d.settleCh <- struct{}{}:
			default:
			}
		})
	}
}

func (d *Dispatcher) finishSettle() {
	d.mu.Lock()
	if d.session.Phase == PhaseProcessing {
		d.session.Phase = PhaseListening
		d.session.LastTranscript = ""
	}
	d.mu.Unlock()
}

// interpret matches one finalized transcript and dispatches its effect.
func (d *Dispatcher) interpret(transcript string) {
	match := d.table.Match(transcript, true)

	switch match.Kind {
	case MatchNavigation:
		d.ui.SelectTab(match.Target)
		d.say("Opening " + match.Target + ".")
		d.publish(events.NewVoiceCommand(string(KindNavigation), match.Target, transcript))
		d.logger.Info("Voice", "Navigation command", map[string]interface{}{
			"target": match.Target, "transcript": transcript,
		})

	case MatchAction:
		d.dispatchAction(match, transcript)

	case MatchHint:
		d.say("Sorry, I didn't recognize that command.")

	case MatchWake, MatchNone:
		// Nothing to do.
	}
}

func (d *Dispatcher) dispatchAction(match MatchResult, transcript string) {
	switch match.Target {
	case ActionSignOut:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.auth.SignOut(ctx); err != nil {
			d.logger.Error("Voice", "Sign out failed", map[string]interface{}{"error": err.Error()})
		}
		d.say("Signing you out. Goodbye.")
		// Navigation after sign-out is deferred to the UI layer.
		d.publish(events.NewSignedOut())

	case ActionProfile:
		d.ui.ShowProfile()
		d.say("Opening your profile.")

	case ActionLeftOpen:
		d.ui.SetPanel("left", true)
		d.say("Opening the left panel.")

	case ActionLeftClose:
		d.ui.SetPanel("left", false)
		d.say("Closing the left panel.")

	case ActionRightOpen:
		d.ui.SetPanel("right", true)
		d.say("Opening the right panel.")

	case ActionRightClose:
		d.ui.SetPanel("right", false)
		d.say("Closing the right panel.")

	case ActionDeactivate:
		d.Deactivate()
		return // Deactivate speaks its own acknowledgment

	case ActionAsk:
		question := ExtractQuestion(transcript, match.Phrase)
		if question == "" {
			d.say("What would you like to know?")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		answer := d.queries.ProcessVoiceQuery(ctx, question)
		d.say(answer)
		d.publish(events.NewVoiceQuery(question))
		return
	}

	d.publish(events.NewVoiceCommand(string(KindAction), match.Target, transcript))
}

func (d *Dispatcher) handleRecognitionError(code string) {
	if code == ErrCodeNotAllowed || code == ErrCodeServiceNotAllowed {
		// Permission denial is fatal to the current session.
		d.logger.Error("Voice", "Microphone permission denied", map[string]interface{}{"code": code})
		d.mu.Lock()
		active := d.session.Phase != PhaseIdle
		d.mu.Unlock()
		if active {
			d.synth.CancelAll()
			d.synth.Speak("I can't access the microphone, so voice commands are turned off.")
			d.teardown()
		}
		return
	}

	// Transient (network, no-speech) errors do not terminate the session.
	d.logger.Warn("Voice", "Transient recognition error", map[string]interface{}{"code": code})
}

// handleRecognitionEnded restarts the platform session when it drops while
// we are logically still listening. Bounded retry: one plain restart, then
// one from-scratch reinitialization, then give up.
func (d *Dispatcher) handleRecognitionEnded() {
	d.mu.Lock()
	active := d.session.Phase != PhaseIdle
	d.mu.Unlock()
	if !active {
		return
	}

	time.AfterFunc(d.RestartDelay, d.tryRestart)
}

func (d *Dispatcher) tryRestart() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session.Phase == PhaseIdle {
		return
	}

	if err := d.recognizer.Start(); err == nil {
		d.logger.Info("Voice", "Recognizer restarted", nil)
		return
	} else if d.reinitialized {
		d.logger.Error("Voice", "Recognizer restart failed after reinit, giving up", map[string]interface{}{
			"error": err.Error(),
		})
		d.teardownLocked()
		return
	}

	d.reinitialized = true
	rec, err := d.factory()
	if err != nil {
		d.logger.Error("Voice", "Recognizer reinit failed, giving up", map[string]interface{}{"error": err.Error()})
		d.teardownLocked()
		return
	}
	d.attachRecognizerLocked(rec)
	if err := rec.Start(); err != nil {
		d.logger.Error("Voice", "Fresh recognizer failed to start, giving up", map[string]interface{}{"error": err.Error()})
		d.teardownLocked()
		return
	}
	d.logger.Info("Voice", "Recognizer reinitialized", nil)
}

func (d *Dispatcher) teardown() {
	d.mu.Lock()
	d.teardownLocked()
	d.mu.Unlock()
	d.publish(events.NewVoiceSessionChanged(PhaseIdle))
}

func (d *Dispatcher) teardownLocked() {
	if d.recognizer != nil {
		d.recognizer.Stop()
	}
	d.session = Session{Phase: PhaseIdle}
}

// attachRecognizerLocked swaps in a recognizer and pumps its events into the
// dispatcher loop. Caller holds d.mu.
func (d *Dispatcher) attachRecognizerLocked(rec Recognizer) {
	if d.pumpQuit != nil {
		close(d.pumpQuit)
	}
	quit := make(chan struct{})
	d.pumpQuit = quit
	d.recognizer = rec

	go func() {
		for {
			select {
			case ev, ok := <-rec.Events():
				if !ok {
					return
				}
				select {
				case d.incoming <- ev:
				case <-quit:
					return
				case <-d.stop:
					return
				}
			case <-quit:
				return
			case <-d.stop:
				return
			}
		}
	}()
}

// say serializes speech by cancelling any in-flight utterance first. Rapid
// commands audibly interrupt one another; there is no utterance queue.
func (d *Dispatcher) say(text string) {
	d.synth.CancelAll()
	d.synth.Speak(text)
}

func (d *Dispatcher) publish(ev events.Event) {
	if d.publisher == nil {
		return
	}
	if err := events.Publish(d.publisher, events.TopicAssistant, ev); err != nil {
		d.logger.Warn("Voice", "Failed to publish event", map[string]interface{}{"error": err.Error()})
	}
}
