package voice

// Session phases. Exactly one session exists per process; it is owned by the
// Dispatcher and other components only observe snapshots of it.
const (
	PhaseIdle       = "IDLE"
	PhaseListening  = "LISTENING"
	PhaseProcessing = "PROCESSING"
)

type Session struct {
	Phase          string `json:"phase"`
	LastTranscript string `json:"last_transcript"`
}

func (s Session) Active() bool {
	return s.Phase != PhaseIdle
}
