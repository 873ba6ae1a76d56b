package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncArticleCreated is a no-op.
func (n *NoopRecorder) IncArticleCreated() {}

// IncArticleUpdated is a no-op.
func (n *NoopRecorder) IncArticleUpdated() {}

// IncArticleDeleted is a no-op.
func (n *NoopRecorder) IncArticleDeleted() {}

// IncAccountRegistered is a no-op.
func (n *NoopRecorder) IncAccountRegistered() {}

// IncLoginAttempt is a no-op.
func (n *NoopRecorder) IncLoginAttempt(status string) {}

// IncLogout is a no-op.
func (n *NoopRecorder) IncLogout() {}
