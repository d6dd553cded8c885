package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueItem describes a queue entry in a transport-friendly format. The
// image payload is never included.
type QueueItem struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	SupplierID     string `json:"supplierId"`
	SupplierName   string `json:"supplierName"`
	ModelID        string `json:"modelId,omitempty"`
	ModelName      string `json:"modelName,omitempty"`
	Price          int64  `json:"price"`
	Currency       string `json:"currency"`
	Quantity       int    `json:"quantity"`
	ContentType    string `json:"contentType"`
	FileSize       int64  `json:"fileSize"`
	BatchID        string `json:"batchId,omitempty"`
	Progress       int    `json:"progress"`
	RetryCount     int    `json:"retryCount"`
	NextAttemptAt  string `json:"nextAttemptAt,omitempty"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
	StoragePath    string `json:"storagePath,omitempty"`
	Uploaded       bool   `json:"uploaded"`
	RemoteRecordID string `json:"remoteRecordId,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

// QueueStatsResponse provides a normalized queue stats payload.
type QueueStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// QueueListResponse wraps a collection of queue items for API responses.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// EngineStatus summarizes dispatch engine state.
type EngineStatus struct {
	Running      bool           `json:"running"`
	AuthRequired bool           `json:"authRequired"`
	QueueStats   map[string]int `json:"queueStats"`
}
