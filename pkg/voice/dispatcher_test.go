package voice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"cellexis-assistant/internal/pkg/logger"
)

type fakeSynth struct {
	mu      sync.Mutex
	spoken  []string
	cancels int
}

func (s *fakeSynth) Speak(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
}

func (s *fakeSynth) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels++
}

func (s *fakeSynth) utterances() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

func (s *fakeSynth) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = nil
	s.cancels = 0
}

type fakeUI struct {
	mu       sync.Mutex
	tabs     []string
	panels   map[string]bool
	profiles int
}

func newFakeUI() *fakeUI {
	return &fakeUI{panels: map[string]bool{}}
}

func (u *fakeUI) SelectTab(target string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.tabs = append(u.tabs, target)
}

func (u *fakeUI) SetPanel(panel string, open bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.panels[panel] = open
}

func (u *fakeUI) ShowProfile() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.profiles++
}

type fakeAuth struct {
	signOuts int
	err      error
}

func (a *fakeAuth) SignOut(ctx context.Context) error {
	a.signOuts++
	return a.err
}

type fakeQueries struct {
	questions []string
	answer    string
}

func (q *fakeQueries) ProcessVoiceQuery(ctx context.Context, query string) string {
	q.questions = append(q.questions, query)
	return q.answer
}

// fakeRecognizer lets tests script Start failures for the restart policy.
type fakeRecognizer struct {
	events    chan RecognizerEvent
	startErrs []error
	starts    int
	stops     int
}

func newFakeRecognizer(startErrs ...error) *fakeRecognizer {
	return &fakeRecognizer{events: make(chan RecognizerEvent, 16), startErrs: startErrs}
}

func (r *fakeRecognizer) Start() error {
	r.starts++
	if len(r.startErrs) > 0 {
		err := r.startErrs[0]
		r.startErrs = r.startErrs[1:]
		return err
	}
	return nil
}

func (r *fakeRecognizer) Stop()                          { r.stops++ }
func (r *fakeRecognizer) Events() <-chan RecognizerEvent { return r.events }

type dispatcherFixture struct {
	d     *Dispatcher
	synth *fakeSynth
	ui    *fakeUI
	auth  *fakeAuth
	q     *fakeQueries
	rec   *fakeRecognizer
}

func newFixture(t *testing.T) *dispatcherFixture {
	t.Helper()

	f := &dispatcherFixture{
		synth: &fakeSynth{},
		ui:    newFakeUI(),
		auth:  &fakeAuth{},
		q:     &fakeQueries{answer: "Here is what I found."},
		rec:   newFakeRecognizer(),
	}
	factory := func() (Recognizer, error) { return f.rec, nil }
	f.d = NewDispatcher(
		NewCommandTable("hey cellexis"),
		factory,
		f.synth,
		f.ui,
		f.auth,
		f.q,
		nil,
		logger.NewNopLogger(),
	)
	return f
}

// final feeds a finalized transcript straight through the transition
// function, the same path the event loop takes.
func (f *dispatcherFixture) final(text string) {
	f.d.handleTranscript(RecognizerEvent{Kind: EventTranscript, Transcript: text, Final: true})
}

func TestActivateIsIdempotent(t *testing.T) {
	f := newFixture(t)

	if err := f.d.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if err := f.d.Activate(); err != nil {
		t.Fatalf("second Activate: %v", err)
	}

	if got := f.d.State().Phase; got != PhaseListening {
		t.Errorf("phase = %s, want LISTENING", got)
	}
	if len(f.synth.utterances()) != 1 {
		t.Errorf("expected one activation acknowledgment, got %v", f.synth.utterances())
	}
	if f.rec.starts != 1 {
		t.Errorf("recognizer started %d times, want 1", f.rec.starts)
	}
}

func TestDeactivateWhileIdleIsNoOp(t *testing.T) {
	f := newFixture(t)

	f.d.Deactivate()

	if got := f.d.State().Phase; got != PhaseIdle {
		t.Errorf("phase = %s, want IDLE", got)
	}
	if len(f.synth.utterances()) != 0 {
		t.Errorf("expected silence, got %v", f.synth.utterances())
	}
}

func TestNavigationCommandRepeatable(t *testing.T) {
	f := newFixture(t)
	f.d.Activate()

	f.final("go to bookmarks")
	f.d.finishSettle()
	f.final("go to bookmarks")
	f.d.finishSettle()

	if len(f.ui.tabs) != 2 || f.ui.tabs[0] != TabBookmarks || f.ui.tabs[1] != TabBookmarks {
		t.Errorf("tabs = %v, want [bookmarks bookmarks]", f.ui.tabs)
	}
	if got := f.d.State().Phase; got != PhaseListening {
		t.Errorf("phase after settle = %s, want LISTENING", got)
	}
}

func TestToggleLeftOpensPanelWithOneAcknowledgment(t *testing.T) {
	f := newFixture(t)
	f.d.Activate()
	f.synth.reset()

	f.final("toggle left")

	if !f.ui.panels["left"] {
		t.Error("left panel should be open")
	}
	if got := f.synth.utterances(); len(got) != 1 {
		t.Errorf("expected exactly one spoken acknowledgment, got %v", got)
	}
}

func TestSingleFlightWhileProcessing(t *testing.T) {
	f := newFixture(t)
	f.d.Activate()

	f.final("go to bookmarks")
	// Settle delay has not elapsed; phase is still Processing.
	if got := f.d.State().Phase; got != PhaseProcessing {
		t.Fatalf("phase = %s, want PROCESSING", got)
	}

	f.final("go to search")

	if len(f.ui.tabs) != 1 {
		t.Errorf("second command must be dropped, tabs = %v", f.ui.tabs)
	}

	f.d.finishSettle()
	if got := f.d.State(); got.Phase != PhaseListening || got.LastTranscript != "" {
		t.Errorf("after settle: %+v, want cleared LISTENING session", got)
	}
}

func TestDeactivationPhraseWhileIdleHasNoEffect(t *testing.T) {
	f := newFixture(t)

	f.final("stop listening")

	if got := f.d.State().Phase; got != PhaseIdle {
		t.Errorf("phase = %s, want IDLE", got)
	}
	if len(f.synth.utterances()) != 0 {
		t.Errorf("expected no spoken feedback, got %v", f.synth.utterances())
	}
}

func TestDeactivationPhraseWhileListening(t *testing.T) {
	f := newFixture(t)
	f.d.Activate()

	f.final("stop listening")

	if got := f.d.State().Phase; got != PhaseIdle {
		t.Errorf("phase = %s, want IDLE", got)
	}
	if f.rec.stops == 0 {
		t.Error("recognizer must be released on deactivation")
	}
	last := f.synth.utterances()[len(f.synth.utterances())-1]
	if !strings.Contains(last, "deactivated") {
		t.Errorf("expected deactivation acknowledgment, got %q", last)
	}
}

func TestWakePhraseActivatesFromIdle(t *testing.T) {
	f := newFixture(t)

	f.final("hey cellexis")

	if got := f.d.State().Phase; got != PhaseListening {
		t.Errorf("phase = %s, want LISTENING", got)
	}
}

func TestInterimTranscriptsIgnored(t *testing.T) {
	f := newFixture(t)
	f.d.Activate()

	f.d.handleTranscript(RecognizerEvent{Kind: EventTranscript, Transcript: "go to bookmarks", Final: false})

	if len(f.ui.tabs) != 0 {
		t.Errorf("interim transcript dispatched a command: %v", f.ui.tabs)
	}
}

func TestSignOutInvokesAuthProvider(t *testing.T) {
	f := newFixture(t)
	f.d.Activate()
	f.synth.reset()

	f.final("sign out")

	if f.auth.signOuts != 1 {
		t.Errorf("signOuts = %d, want 1", f.auth.signOuts)
	}
	if got := f.synth.utterances(); len(got) != 1 || !strings.Contains(got[0], "Signing you out") {
		t.Errorf("utterances = %v", got)
	}
}

func TestAskRoutesQuestionAndSpeaksAnswer(t *testing.T) {
	f := newFixture(t)
	f.d.Activate()
	f.synth.reset()

	f.final("ask what happens to bones in space")

	if len(f.q.questions) != 1 || f.q.questions[0] != "what happens to bones in space" {
		t.Errorf("questions = %v", f.q.questions)
	}
	if got := f.synth.utterances(); len(got) != 1 || got[0] != "Here is what I found." {
		t.Errorf("utterances = %v", got)
	}
}

func TestUnrecognizedCommandSpeaksHint(t *testing.T) {
	f := newFixture(t)
	f.d.Activate()
	f.synth.reset()

	f.final("completely unintelligible rambling")

	got := f.synth.utterances()
	if len(got) != 1 || !strings.Contains(got[0], "didn't recognize") {
		t.Errorf("utterances = %v", got)
	}
}

func TestPermissionDeniedTearsDownSession(t *testing.T) {
	f := newFixture(t)
	f.d.Activate()

	f.d.handleRecognitionError(ErrCodeNotAllowed)

	if got := f.d.State().Phase; got != PhaseIdle {
		t.Errorf("phase = %s, want IDLE", got)
	}
	if f.rec.stops == 0 {
		t.Error("recognizer must be released on permission denial")
	}
}

func TestTransientErrorKeepsSessionAlive(t *testing.T) {
	f := newFixture(t)
	f.d.Activate()

	f.d.handleRecognitionError("network")

	if got := f.d.State().Phase; got != PhaseListening {
		t.Errorf("phase = %s, want LISTENING", got)
	}
}

func TestRestartReinitializesOnce(t *testing.T) {
	f := newFixture(t)
	f.d.Activate()

	// Next Start on the original recognizer fails; the factory hands out a
	// fresh working one.
	f.rec.startErrs = []error{errors.New("platform gone")}
	fresh := newFakeRecognizer()
	f.d.factory = func() (Recognizer, error) { return fresh, nil }

	f.d.tryRestart()

	if got := f.d.State().Phase; got != PhaseListening {
		t.Errorf("phase = %s, want LISTENING after reinit", got)
	}
	if fresh.starts != 1 {
		t.Errorf("fresh recognizer starts = %d, want 1", fresh.starts)
	}
}

func TestRestartGivesUpAfterReinitFails(t *testing.T) {
	f := newFixture(t)
	f.d.Activate()

	f.rec.startErrs = []error{errors.New("platform gone")}
	f.d.factory = func() (Recognizer, error) { return nil, errors.New("no speech support") }

	f.d.tryRestart()

	if got := f.d.State().Phase; got != PhaseIdle {
		t.Errorf("phase = %s, want IDLE after giving up", got)
	}
}

func TestSpeechIsSerializedByCancellation(t *testing.T) {
	f := newFixture(t)
	f.d.Activate()
	f.synth.reset()

	f.final("toggle left")
	f.d.finishSettle()
	f.final("close left")

	f.synth.mu.Lock()
	cancels := f.synth.cancels
	f.synth.mu.Unlock()
	if cancels < 2 {
		t.Errorf("cancels = %d, want one per utterance", cancels)
	}
}
