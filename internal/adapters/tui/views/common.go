package views

import "owlsync/internal/domain"

// ViewState contains common state shared by all view models.
// Embed this struct in view models to get width/height and message handling.
type ViewState struct {
	Width      int
	Height     int
	Message    string
	MessageErr bool
}

// SetSize updates the view dimensions
func (s *ViewState) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// SetMessage sets a message to display in the view
func (s *ViewState) SetMessage(msg string, isErr bool) {
	s.Message = msg
	s.MessageErr = isErr
}

// ClearMessage clears the current message
func (s *ViewState) ClearMessage() {
	s.Message = ""
	s.MessageErr = false
}

// Messages for view switching and the actions the app performs on behalf
// of a view

type SwitchToCatalogMsg struct {
	Reload bool
}

type SwitchToDetailMsg struct {
	Plugin domain.Plugin
}

type SwitchToHelpMsg struct{}

type StartSyncMsg struct {
	Differential bool
}

type CancelSyncMsg struct{}

type ToggleNativeDiscoveryMsg struct {
	Path    string
	Enabled bool
}

type ResetFootprintMsg struct {
	Path string
}

type RevealMsg struct {
	Path string
}

type CopyPathMsg struct {
	Path string
}

// StatusMsg shows a message in the current view
type StatusMsg struct {
	Text  string
	IsErr bool
}
