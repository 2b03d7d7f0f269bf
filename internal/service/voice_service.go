package service

import (
	"context"
	"sync"
	"time"

	"cellexis-assistant/internal/dto"
	"cellexis-assistant/internal/pkg/logger"
	"cellexis-assistant/pkg/events"
	"cellexis-assistant/pkg/voice"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IVoiceService interface {
	// PushTranscript feeds a browser SpeechRecognition result into the
	// active recognizer. Returns false when no voice session is running.
	PushTranscript(transcript string, final bool) bool

	Activate() error
	Deactivate()
	Toggle()
	State() dto.VoiceStateResponse
	Shutdown()
}

type voiceService struct {
	dispatcher *voice.Dispatcher
	table      *voice.CommandTable
	ui         *uiState
	logger     logger.ILogger

	mu      sync.Mutex
	current *voice.ChannelRecognizer
}

// NewVoiceService wires the command dispatcher to its server-side
// collaborators: recognition transcripts arrive over REST, spoken feedback
// and sign-out leave as events the browser acts on.
func NewVoiceService(
	table *voice.CommandTable,
	queries voice.QueryHandler,
	publisher message.Publisher,
	settleDelay time.Duration,
	log logger.ILogger,
) IVoiceService {
	vs := &voiceService{
		table:  table,
		ui:     &uiState{activeTab: "search"},
		logger: log,
	}

	factory := func() (voice.Recognizer, error) {
		r := voice.NewChannelRecognizer()
		vs.mu.Lock()
		vs.current = r
		vs.mu.Unlock()
		return r, nil
	}

	synth := &eventSynthesizer{publisher: publisher, logger: log}
	auth := &eventAuthProvider{logger: log}

	vs.dispatcher = voice.NewDispatcher(table, factory, synth, vs.ui, auth, queries, publisher, log)
	if settleDelay > 0 {
		vs.dispatcher.SettleDelay = settleDelay
	}
	vs.dispatcher.Start()
	return vs
}

func (vs *voiceService) PushTranscript(transcript string, final bool) bool {
	// While idle, the recognizer is stopped, so transcripts cannot flow
	// through it. The wake phrase still has to work from here: a finalized
	// segment containing it activates the session directly.
	if vs.dispatcher.State().Phase == voice.PhaseIdle {
		if final && vs.table.Match(transcript, false).Kind == voice.MatchWake {
			return vs.dispatcher.Activate() == nil
		}
		return false
	}

	vs.mu.Lock()
	r := vs.current
	vs.mu.Unlock()

	if r == nil {
		return false
	}
	r.PushTranscript(transcript, final)
	return true
}

func (vs *voiceService) Activate() error { return vs.dispatcher.Activate() }
func (vs *voiceService) Deactivate()     { vs.dispatcher.Deactivate() }
func (vs *voiceService) Toggle()         { vs.dispatcher.Toggle() }
func (vs *voiceService) Shutdown()       { vs.dispatcher.Close() }

func (vs *voiceService) State() dto.VoiceStateResponse {
	session := vs.dispatcher.State()
	tab, left, right := vs.ui.snapshot()
	return dto.VoiceStateResponse{
		Phase:          session.Phase,
		LastTranscript: session.LastTranscript,
		ActiveTab:      tab,
		LeftPanelOpen:  left,
		RightPanelOpen: right,
	}
}

// uiState mirrors the browser layout server-side so /api/voice/state can
// report what the last commands did.
type uiState struct {
	mu        sync.Mutex
	activeTab string
	leftOpen  bool
	rightOpen bool
}

func (u *uiState) SelectTab(target string) {
	u.mu.Lock()
	u.activeTab = target
	u.mu.Unlock()
}

func (u *uiState) SetPanel(panel string, open bool) {
	u.mu.Lock()
	switch panel {
	case "left":
		u.leftOpen = open
	case "right":
		u.rightOpen = open
	}
	u.mu.Unlock()
}

func (u *uiState) ShowProfile() {
	// Profile is a browser-side overlay; the VOICE_COMMAND event carries
	// it to the UI, nothing to track here.
}

func (u *uiState) snapshot() (tab string, left, right bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.activeTab, u.leftOpen, u.rightOpen
}

// eventSynthesizer turns spoken feedback into VOICE_UTTERANCE events; the
// browser's speechSynthesis does the actual talking.
type eventSynthesizer struct {
	publisher message.Publisher
	logger    logger.ILogger
}

func (s *eventSynthesizer) Speak(text string) {
	if s.publisher == nil {
		return
	}
	if err := events.Publish(s.publisher, events.TopicAssistant, events.NewVoiceUtterance(text, false)); err != nil {
		s.logger.Warn("VoiceService", "Failed to publish utterance", map[string]interface{}{"error": err.Error()})
	}
}

func (s *eventSynthesizer) CancelAll() {
	if s.publisher == nil {
		return
	}
	if err := events.Publish(s.publisher, events.TopicAssistant, events.NewVoiceUtterance("", true)); err != nil {
		s.logger.Warn("VoiceService", "Failed to publish cancel", map[string]interface{}{"error": err.Error()})
	}
}

// eventAuthProvider has no server-side session to tear down; the SIGNED_OUT
// event broadcast by the dispatcher tells the browser to drop its token.
type eventAuthProvider struct {
	logger logger.ILogger
}

func (a *eventAuthProvider) SignOut(ctx context.Context) error {
	a.logger.Info("VoiceService", "Sign-out requested by voice command", nil)
	return nil
}
