package voice

import "strings"

// CommandKind distinguishes tab navigation from the closed action set.
type CommandKind string

const (
	KindNavigation CommandKind = "NAVIGATION"
	KindAction     CommandKind = "ACTION"
)

// Action targets.
const (
	ActionSignOut    = "sign_out"
	ActionProfile    = "profile"
	ActionLeftOpen   = "left_open"
	ActionLeftClose  = "left_close"
	ActionRightOpen  = "right_open"
	ActionRightClose = "right_close"
	ActionAsk        = "ask"
	ActionDeactivate = "deactivate"
)

// Navigation targets map directly to the dashboard tab values.
const (
	TabSearch    = "search"
	TabQA        = "qa"
	TabGraph     = "graph"
	TabPapers    = "papers"
	TabBookmarks = "bookmarks"
)

type Command struct {
	Phrase string
	Kind   CommandKind
	Target string
}

// MatchKind is the outcome of scanning one transcript.
type MatchKind string

const (
	MatchNavigation MatchKind = "NAVIGATION"
	MatchAction     MatchKind = "ACTION"
	MatchWake       MatchKind = "WAKE"
	MatchHint       MatchKind = "HINT"
	MatchNone       MatchKind = "NONE"
)

type MatchResult struct {
	Kind   MatchKind
	Target string
	Phrase string // the table phrase that matched
}

// minHintLength filters out stray noise: shorter unmatched transcripts are
// silently ignored instead of triggering the "not recognized" hint.
const minHintLength = 10

// CommandTable is the static phrase table. Loaded once at startup, never
// mutated. Matching is first-match-wins substring scan in table order, NOT
// longest-match: the table must stay curated so no short phrase is an
// accidental substring of a longer distinct command.
type CommandTable struct {
	navigation []Command
	actions    []Command
	wakePhrase string
}

func NewCommandTable(wakePhrase string) *CommandTable {
	return &CommandTable{
		wakePhrase: strings.ToLower(strings.TrimSpace(wakePhrase)),
		navigation: []Command{
			{Phrase: "bookmark", Kind: KindNavigation, Target: TabBookmarks},
			{Phrase: "paper", Kind: KindNavigation, Target: TabPapers},
			{Phrase: "graph", Kind: KindNavigation, Target: TabGraph},
			{Phrase: "question", Kind: KindNavigation, Target: TabQA},
			{Phrase: "search", Kind: KindNavigation, Target: TabSearch},
		},
		actions: []Command{
			{Phrase: "sign out", Kind: KindAction, Target: ActionSignOut},
			{Phrase: "log out", Kind: KindAction, Target: ActionSignOut},
			{Phrase: "profile", Kind: KindAction, Target: ActionProfile},
			{Phrase: "open left", Kind: KindAction, Target: ActionLeftOpen},
			{Phrase: "toggle left", Kind: KindAction, Target: ActionLeftOpen},
			{Phrase: "close left", Kind: KindAction, Target: ActionLeftClose},
			{Phrase: "open right", Kind: KindAction, Target: ActionRightOpen},
			{Phrase: "toggle right", Kind: KindAction, Target: ActionRightOpen},
			{Phrase: "close right", Kind: KindAction, Target: ActionRightClose},
			{Phrase: "stop listening", Kind: KindAction, Target: ActionDeactivate},
			{Phrase: "go to sleep", Kind: KindAction, Target: ActionDeactivate},
			{Phrase: "ask", Kind: KindAction, Target: ActionAsk},
			{Phrase: "tell me about", Kind: KindAction, Target: ActionAsk},
		},
	}
}

// Match normalizes the transcript and scans navigation entries first, then
// actions. active reports whether a voice session is currently running.
func (t *CommandTable) Match(transcript string, active bool) MatchResult {
	normalized := strings.ToLower(strings.TrimSpace(transcript))
	if normalized == "" {
		return MatchResult{Kind: MatchNone}
	}

	for _, cmd := range t.navigation {
		if strings.Contains(normalized, cmd.Phrase) {
			return MatchResult{Kind: MatchNavigation, Target: cmd.Target, Phrase: cmd.Phrase}
		}
	}
	for _, cmd := range t.actions {
		if strings.Contains(normalized, cmd.Phrase) {
			return MatchResult{Kind: MatchAction, Target: cmd.Target, Phrase: cmd.Phrase}
		}
	}

	if !active && t.wakePhrase != "" && strings.Contains(normalized, t.wakePhrase) {
		return MatchResult{Kind: MatchWake}
	}

	if active && len(normalized) >= minHintLength {
		return MatchResult{Kind: MatchHint}
	}

	return MatchResult{Kind: MatchNone}
}

// ExtractQuestion returns the free-form question following a matched ask
// phrase ("ask what happens to bones in space" -> "what happens to bones in
// space"). Empty when nothing follows the phrase.
func ExtractQuestion(transcript, phrase string) string {
	normalized := strings.ToLower(strings.TrimSpace(transcript))
	idx := strings.Index(normalized, phrase)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(normalized[idx+len(phrase):])
}
