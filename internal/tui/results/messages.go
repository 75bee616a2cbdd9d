package results

// SetEditorQueryMsg asks the app to load a generated statement into the editor.
type SetEditorQueryMsg struct {
	Query string
}

// StatusNotifyMsg carries the outcome of a background action for the status bar.
type StatusNotifyMsg struct {
	Message string
}
