package workspace

// IntentKind names a side effect the caller must carry out.
type IntentKind string

// IntentReleaseTerminal asks the terminal collaborator to release the
// process behind a removed terminal pane.
const IntentReleaseTerminal IntentKind = "release-terminal"

// Intent is a side effect requested by a command. Commands never perform
// side effects themselves.
type Intent struct {
	Kind   IntentKind `json:"kind"`
	PaneID string     `json:"paneId"`
}

// Outcome reports what a command did. Ids are empty when the command was a
// no-op or did not create or target anything.
type Outcome struct {
	TabID   string   `json:"tabId,omitempty"`
	PaneID  string   `json:"paneId,omitempty"`
	PaneIDs []string `json:"paneIds,omitempty"`
	Changed bool     `json:"changed"`
	Intents []Intent `json:"-"`
}

func releaseIntent(p Pane) (Intent, bool) {
	if p.Type != PaneTypeTerminal {
		return Intent{}, false
	}
	return Intent{Kind: IntentReleaseTerminal, PaneID: p.ID}, true
}
