package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"fieldcap/internal/remote"
	"fieldcap/internal/services"
)

func TestUploadLocationSendsAuthAndDecodes(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(remote.UploadLocation{
			URL:         "http://storage.test/put",
			StoragePath: "captures/org-1/abc.jpg",
			Fields:      map[string]string{"key": "captures/org-1/abc.jpg"},
		})
	}))
	defer server.Close()

	client := remote.NewClient(server.URL, "secret-token")
	location, err := client.UploadLocation(context.Background(), remote.UploadLocationRequest{
		OrgID:       "org-1",
		FileName:    "abc.jpg",
		ContentType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("UploadLocation failed: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotPath != "/v1/upload-location" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if location.StoragePath != "captures/org-1/abc.jpg" || location.Fields["key"] == "" {
		t.Fatalf("unexpected location: %#v", location)
	}
}

func TestCreateRecordCarriesRequestID(t *testing.T) {
	var got remote.RecordRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(remote.Record{ID: "rec-1"})
	}))
	defer server.Close()

	client := remote.NewClient(server.URL, "token")
	record, err := client.CreateRecord(context.Background(), remote.RecordRequest{
		RequestID:    "entry-uuid-1",
		OrgID:        "org-1",
		UserID:       "user-1",
		SupplierID:   "sup-1",
		SupplierName: "Acme",
		Price:        9000,
		Currency:     "KRW",
		Quantity:     1,
		StoragePath:  "captures/org-1/entry-uuid-1.jpg",
	})
	if err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}
	if record.ID != "rec-1" {
		t.Fatalf("unexpected record id %q", record.ID)
	}
	if got.RequestID != "entry-uuid-1" {
		t.Fatalf("expected request_id forwarded, got %q", got.RequestID)
	}
}

func TestErrorClassificationByStatus(t *testing.T) {
	cases := []struct {
		name   string
		status int
		marker error
	}{
		{"unauthorized", http.StatusUnauthorized, services.ErrAuthorization},
		{"forbidden", http.StatusForbidden, services.ErrAuthorization},
		{"bad request", http.StatusBadRequest, services.ErrValidation},
		{"unprocessable", http.StatusUnprocessableEntity, services.ErrValidation},
		{"not found", http.StatusNotFound, services.ErrNotFound},
		{"server error", http.StatusInternalServerError, services.ErrTransient},
		{"bad gateway", http.StatusBadGateway, services.ErrTransient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}))
			defer server.Close()

			client := remote.NewClient(server.URL, "token")
			_, err := client.CreateRecord(context.Background(), remote.RecordRequest{RequestID: "x"})
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected marker %v, got %v", tc.marker, err)
			}
		})
	}
}

func TestConnectionFailureIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := remote.NewClient(server.URL, "token")
	_, err := client.UploadLocation(context.Background(), remote.UploadLocationRequest{OrgID: "o", FileName: "f"})
	if !services.Retryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}

func TestUploadBinarySendsFieldsAndFile(t *testing.T) {
	var gotFields map[string]string
	var gotFile []byte
	var gotName string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		gotFields = map[string]string{}
		for key, values := range r.MultipartForm.Value {
			if len(values) > 0 {
				gotFields[key] = values[0]
			}
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer file.Close()
		gotName = header.Filename
		gotFile, _ = io.ReadAll(file)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := remote.NewClient(server.URL, "token")
	location := remote.UploadLocation{
		URL:         server.URL + "/put",
		StoragePath: "captures/org-1/abc.jpg",
		Fields:      map[string]string{"key": "captures/org-1/abc.jpg", "policy": "p"},
	}
	err := client.UploadBinary(context.Background(), location, "abc.jpg", "image/jpeg", []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("UploadBinary failed: %v", err)
	}
	if gotFields["key"] != "captures/org-1/abc.jpg" || gotFields["policy"] != "p" {
		t.Fatalf("unexpected fields: %#v", gotFields)
	}
	if gotName != "abc.jpg" || string(gotFile) != "jpeg-bytes" {
		t.Fatalf("unexpected file part: %q %q", gotName, gotFile)
	}
}

func TestUploadBinaryRejectsEmptyPayload(t *testing.T) {
	client := remote.NewClient("http://127.0.0.1:0", "token")
	err := client.UploadBinary(context.Background(), remote.UploadLocation{URL: "http://x"}, "f.jpg", "image/jpeg", nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateSupplierAndModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/suppliers":
			_, _ = w.Write([]byte(`{"id":"sup-remote"}`))
		case "/v1/models":
			_, _ = w.Write([]byte(`{"id":"mod-remote"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := remote.NewClient(server.URL, "token")
	supID, err := client.CreateSupplier(context.Background(), "org-1", "Acme")
	if err != nil || supID != "sup-remote" {
		t.Fatalf("CreateSupplier = %q, %v", supID, err)
	}
	modID, err := client.CreateModel(context.Background(), "org-1", "sup-remote", "Widget")
	if err != nil || modID != "mod-remote" {
		t.Fatalf("CreateModel = %q, %v", modID, err)
	}
}

func TestCheckAuthDetectsRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := remote.NewClient(server.URL, "stale-token")
	err := client.CheckAuth(context.Background())
	if !services.IsAuthorization(err) {
		t.Fatalf("expected authorization error, got %v", err)
	}
}
