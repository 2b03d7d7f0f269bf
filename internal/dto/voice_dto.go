package dto

type TranscriptRequest struct {
	Transcript string `json:"transcript" validate:"required"`
	Final      bool   `json:"final"`
}

type VoiceStateResponse struct {
	Phase          string `json:"phase"`
	LastTranscript string `json:"last_transcript"`
	ActiveTab      string `json:"active_tab"`
	LeftPanelOpen  bool   `json:"left_panel_open"`
	RightPanelOpen bool   `json:"right_panel_open"`
}
