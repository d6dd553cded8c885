// Package engine drives capture uploads. A single loop claims pending
// entries in bounded waves, runs the three-step remote submission for each,
// and applies the retry policy: fixed backoff for transient failures, a hard
// stop after the retry budget, and an engine-wide pause when the remote side
// rejects the session.
package engine
