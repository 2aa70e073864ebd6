package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"multisig-wallet-go/internal/models"
)

func setupTestDb(t *testing.T) *Service {
	t.Helper()
	cfg := models.DatabaseConfig{
		Driver:       DriverSQLite,
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		PingTimeout:  5 * time.Second,
	}
	service, err := NewService(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(service.Close)
	return service
}
