// Package session supplies the identity attached to every outgoing capture:
// organization, user, and a device id generated once per installation.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"fieldcap/internal/config"
	"fieldcap/internal/services"
)

// DeviceIDFileName stores the per-installation device identifier.
const DeviceIDFileName = "device-id"

// Identity describes who is uploading.
type Identity struct {
	OrganizationID string
	UserID         string
	DeviceID       string
}

// Provider resolves and validates the active identity.
type Provider interface {
	Identity(ctx context.Context) (Identity, error)
	Validate(ctx context.Context) error
}

// StaticProvider serves the identity configured in the config file. The
// device id is minted on first use and persisted in the data directory.
type StaticProvider struct {
	identity Identity
}

// NewStaticProvider builds a provider from configuration, loading or creating
// the device id under cfg.Paths.DataDir.
func NewStaticProvider(cfg *config.Config) (*StaticProvider, error) {
	deviceID, err := loadOrCreateDeviceID(cfg.Paths.DataDir)
	if err != nil {
		return nil, err
	}
	return &StaticProvider{
		identity: Identity{
			OrganizationID: strings.TrimSpace(cfg.Session.OrganizationID),
			UserID:         strings.TrimSpace(cfg.Session.UserID),
			DeviceID:       deviceID,
		},
	}, nil
}

// Identity returns the configured identity.
func (p *StaticProvider) Identity(ctx context.Context) (Identity, error) {
	if err := p.Validate(ctx); err != nil {
		return Identity{}, err
	}
	return p.identity, nil
}

// Validate checks that the identity is complete enough to upload.
func (p *StaticProvider) Validate(_ context.Context) error {
	if p.identity.OrganizationID == "" {
		return services.Wrap(services.ErrConfiguration, "session", "validate", "organization_id is not configured", nil)
	}
	if p.identity.UserID == "" {
		return services.Wrap(services.ErrConfiguration, "session", "validate", "user_id is not configured", nil)
	}
	return nil
}

func loadOrCreateDeviceID(dataDir string) (string, error) {
	if strings.TrimSpace(dataDir) == "" {
		return "", errors.New("data directory is not configured")
	}
	path := filepath.Join(dataDir, DeviceIDFileName)

	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			return id, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read device id: %w", err)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	id := uuid.NewString()
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write device id: %w", err)
	}
	return id, nil
}
