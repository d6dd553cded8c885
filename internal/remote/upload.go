package remote

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"fieldcap/internal/services"
)

// UploadBinary sends the image payload to the presigned destination. Server
// provided fields go ahead of the file part, matching the usual presigned
// POST contract.
func (c *Client) UploadBinary(ctx context.Context, location UploadLocation, fileName, contentType string, data []byte) error {
	if location.URL == "" {
		return services.Wrap(services.ErrValidation, "remote", "upload binary", "upload url is empty", nil)
	}
	if len(data) == 0 {
		return services.Wrap(services.ErrValidation, "remote", "upload binary", "image payload is empty", nil)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range location.Fields {
		if err := writer.WriteField(key, value); err != nil {
			return services.Wrap(services.ErrTransient, "remote", "upload binary", "write form field", err)
		}
	}
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return services.Wrap(services.ErrTransient, "remote", "upload binary", "create file part", err)
	}
	if _, err := part.Write(data); err != nil {
		return services.Wrap(services.ErrTransient, "remote", "upload binary", "write file part", err)
	}
	if err := writer.Close(); err != nil {
		return services.Wrap(services.ErrTransient, "remote", "upload binary", "finalize form", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, location.URL, &buf)
	if err != nil {
		return services.Wrap(services.ErrTransient, "remote", "upload binary", "build request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if contentType != "" {
		req.Header.Set("X-File-Content-Type", contentType)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError("remote", "upload binary", started, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= http.StatusMultipleChoices {
		return classifyStatus("remote", "upload binary", resp.StatusCode, started, body)
	}
	return nil
}
