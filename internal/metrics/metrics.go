// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Login attempt outcomes.
const (
	LoginSuccess     = "success"
	LoginFailure     = "failure"
	LoginRateLimited = "rate_limited"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// Article management metrics
	IncArticleCreated()
	IncArticleUpdated()
	IncArticleDeleted()

	// Account and session metrics
	IncAccountRegistered()
	IncLoginAttempt(status string) // status: "success", "failure", "rate_limited"
	IncLogout()
}
