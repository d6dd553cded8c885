package remote

import "time"

// UploadLocationRequest asks the remote store where to put a capture image.
type UploadLocationRequest struct {
	OrgID       string `json:"org_id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

// UploadLocation describes a presigned destination for a binary upload.
// Fields must be sent as form fields ahead of the file part.
type UploadLocation struct {
	URL         string            `json:"url"`
	StoragePath string            `json:"storage_path"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// RecordRequest creates the structured capture record. RequestID is the
// client-generated idempotency key; the server dedups on it.
type RecordRequest struct {
	RequestID    string    `json:"request_id"`
	OrgID        string    `json:"org_id"`
	UserID       string    `json:"user_id"`
	DeviceID     string    `json:"device_id,omitempty"`
	SupplierID   string    `json:"supplier_id"`
	SupplierName string    `json:"supplier_name"`
	ModelID      string    `json:"model_id,omitempty"`
	ModelName    string    `json:"model_name,omitempty"`
	Price        int64     `json:"price"`
	Currency     string    `json:"currency"`
	Quantity     int       `json:"quantity"`
	BatchID      string    `json:"batch_id,omitempty"`
	StoragePath  string    `json:"storage_path"`
	CapturedAt   time.Time `json:"captured_at"`
}

// Record is the server acknowledgement for a created capture record.
type Record struct {
	ID string `json:"id"`
}

// ImageMetadataRequest links the uploaded binary to its capture record.
type ImageMetadataRequest struct {
	RecordID    string `json:"record_id"`
	StoragePath string `json:"storage_path"`
	ContentType string `json:"content_type"`
	FileSize    int64  `json:"file_size"`
}

// ImageMetadata is the server acknowledgement for image metadata.
type ImageMetadata struct {
	ID string `json:"id"`
}

type supplierRequest struct {
	OrgID string `json:"org_id"`
	Name  string `json:"name"`
}

type modelRequest struct {
	OrgID      string `json:"org_id"`
	SupplierID string `json:"supplier_id,omitempty"`
	Name       string `json:"name"`
}

type idResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
