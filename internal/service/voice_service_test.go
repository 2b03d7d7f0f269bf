package service

import (
	"context"
	"testing"

	"cellexis-assistant/internal/pkg/logger"
	"cellexis-assistant/pkg/events"
	"cellexis-assistant/pkg/voice"
)

type fakeQueries struct{}

func (fakeQueries) ProcessVoiceQuery(ctx context.Context, query string) string {
	return "answer"
}

func newVoiceFixture(pub *capturePublisher) IVoiceService {
	table := voice.NewCommandTable("hey cellexis")
	return NewVoiceService(table, fakeQueries{}, pub, 0, logger.NewNopLogger())
}

func TestPushTranscriptRequiresActiveSession(t *testing.T) {
	svc := newVoiceFixture(&capturePublisher{})
	defer svc.Shutdown()

	if svc.PushTranscript("open the graph", true) {
		t.Error("transcript should be rejected while idle")
	}

	if err := svc.Activate(); err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if !svc.PushTranscript("open the graph", true) {
		t.Error("transcript should be accepted while listening")
	}
}

func TestWakePhraseTranscriptActivatesIdleSession(t *testing.T) {
	svc := newVoiceFixture(&capturePublisher{})
	defer svc.Shutdown()

	if !svc.PushTranscript("hey cellexis", true) {
		t.Fatal("wake phrase transcript should be accepted while idle")
	}
	if svc.State().Phase != voice.PhaseListening {
		t.Errorf("expected listening after wake phrase, got %s", svc.State().Phase)
	}

	// Interim segments never drive activation.
	svc.Deactivate()
	if svc.PushTranscript("hey cellexis", false) {
		t.Error("interim wake phrase should not activate")
	}
	if svc.State().Phase != voice.PhaseIdle {
		t.Errorf("expected idle after interim wake phrase, got %s", svc.State().Phase)
	}
}

func TestVoiceStateTracksSession(t *testing.T) {
	svc := newVoiceFixture(&capturePublisher{})
	defer svc.Shutdown()

	state := svc.State()
	if state.Phase != voice.PhaseIdle {
		t.Fatalf("expected idle, got %s", state.Phase)
	}
	if state.ActiveTab != "search" {
		t.Fatalf("expected default tab search, got %s", state.ActiveTab)
	}

	if err := svc.Activate(); err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if svc.State().Phase != voice.PhaseListening {
		t.Errorf("expected listening after activate, got %s", svc.State().Phase)
	}

	svc.Deactivate()
	if svc.State().Phase != voice.PhaseIdle {
		t.Errorf("expected idle after deactivate, got %s", svc.State().Phase)
	}
}

func TestActivationSpeaksThroughEvents(t *testing.T) {
	pub := &capturePublisher{}
	svc := newVoiceFixture(pub)
	defer svc.Shutdown()

	if err := svc.Activate(); err != nil {
		t.Fatalf("activate failed: %v", err)
	}

	var sawUtterance bool
	for _, env := range pub.envelopes() {
		if env.Type == events.TypeVoiceUtterance {
			if text, _ := env.Data["text"].(string); text != "" {
				sawUtterance = true
			}
		}
	}
	if !sawUtterance {
		t.Error("activation should emit a spoken acknowledgement event")
	}
}
