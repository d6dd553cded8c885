package queue

import (
	"strings"
	"time"

	"fieldcap/internal/services"
)

// Status represents the lifecycle of a queue entry.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDispatching Status = "dispatching"
	StatusSucceeded   Status = "succeeded"
	StatusFailed      Status = "failed"
)

// ShutdownStopReason is the error message set when in-flight entries are
// returned to pending during daemon shutdown or crash recovery.
const ShutdownStopReason = "Dispatch interrupted"

var allStatuses = []Status{
	StatusPending,
	StatusDispatching,
	StatusSucceeded,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Entry represents a capture upload persisted in SQLite.
//
// ID is generated client-side at admission and doubles as the idempotency key
// (request_id) sent to the remote system; it is never reused. RemoteRecordID is
// the authoritative "reached the server" signal regardless of Status.
type Entry struct {
	ID             string
	Status         Status
	SupplierID     string
	SupplierName   string
	ModelID        string
	ModelName      string
	Price          int64
	Currency       string
	Quantity       int
	ImageData      []byte // populated only by LoadImage
	ContentType    string
	FileSize       int64
	BatchID        string
	Progress       int
	RetryCount     int
	NextAttemptAt  *time.Time
	ErrorMessage   string
	StoragePath    string
	Uploaded       bool
	RemoteRecordID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsTerminal reports whether the entry has reached a final state.
func (e *Entry) IsTerminal() bool {
	return e.Status == StatusSucceeded || e.Status == StatusFailed
}

// FileName returns the remote object name for the entry's image.
func (e *Entry) FileName() string {
	return e.ID + ".jpg"
}

// SetFailed marks the entry as failed with the given error message.
func (e *Entry) SetFailed(message string) {
	e.Status = StatusFailed
	e.ErrorMessage = message
	e.Progress = 0
	e.NextAttemptAt = nil
}

// SetProgress clamps and records advisory upload progress.
func (e *Entry) SetProgress(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	e.Progress = percent
}

// NewCaptureParams describes a capture admission request.
type NewCaptureParams struct {
	SupplierID   string
	SupplierName string
	ModelID      string
	ModelName    string
	Price        int64
	Currency     string
	Quantity     int
	Image        []byte
	ContentType  string
	BatchID      string
}

// Validate enforces the admission gate. Failures carry the validation marker
// and happen before any state is created.
func (p *NewCaptureParams) Validate() error {
	if strings.TrimSpace(p.SupplierID) == "" {
		return services.Wrap(services.ErrValidation, "queue", "new capture", "supplier id is required", nil)
	}
	if strings.TrimSpace(p.SupplierName) == "" {
		return services.Wrap(services.ErrValidation, "queue", "new capture", "supplier name is required", nil)
	}
	if p.Price <= 0 {
		return services.Wrap(services.ErrValidation, "queue", "new capture", "price must be positive", nil)
	}
	if p.Quantity < 0 {
		return services.Wrap(services.ErrValidation, "queue", "new capture", "quantity must not be negative", nil)
	}
	if len(p.Image) == 0 {
		return services.Wrap(services.ErrValidation, "queue", "new capture", "image payload is empty", nil)
	}
	return nil
}

// HealthSummary describes aggregated queue counts per lifecycle state.
type HealthSummary struct {
	Total       int
	Pending     int
	Dispatching int
	Succeeded   int
	Failed      int
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	IntegrityCheck   bool
	TotalEntries     int
	Error            string
}
