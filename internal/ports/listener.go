package ports

// SyncListener receives progress from a sync run.
// Percent is non-decreasing within a run and ends at 100 on success.
type SyncListener interface {
	OnProgress(percent float64, message string)
}

// SyncListenerFunc adapts a function to SyncListener
type SyncListenerFunc func(percent float64, message string)

// OnProgress calls f
func (f SyncListenerFunc) OnProgress(percent float64, message string) {
	f(percent, message)
}
