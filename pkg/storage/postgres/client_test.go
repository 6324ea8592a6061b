package postgres_test

import (
	"context"
	"testing"
	"time"

	"obhistory/config"
	"obhistory/pkg/storage/postgres"
)

func testConfig() config.PostgresConfig {
	return config.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "yourpw",
		DBName:   "obhistory_test",
		SSLMode:  "disable",
		TimeZone: "UTC",

		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 1 * time.Hour,
	}
}

// testClient connects to the local test database, skipping the test when
// no Postgres server is reachable.
func testClient(t *testing.T) *postgres.PostgresClient {
	t.Helper()

	cfg := testConfig()
	if err := postgres.CreateDatabase(cfg, "dev"); err != nil {
		t.Skipf("postgres not available: %v", err)
	}

	client, err := postgres.NewClient(cfg.DSN("dev"))
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}

	if err := client.AutoMigrateSnapshotRecord(); err != nil {
		t.Fatalf("auto migration failed: %v", err)
	}

	t.Cleanup(func() { client.Close() })
	return client
}

// go test -v --run ^TestPostgresInvalidDSN$
func TestPostgresInvalidDSN(t *testing.T) {
	invalidDSN := "host=invalid port=5432 user=fail password=fail dbname=fail sslmode=disable"

	_, err := postgres.NewClient(invalidDSN)
	if err == nil {
		t.Fatal("expected error for invalid DSN, got nil")
	}
}

// go test -v --run ^TestPostgresClientWithConfig$
func TestPostgresClientWithConfig(t *testing.T) {
	client := testClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if !client.IsHealthy(ctx) {
		t.Fatal("expected healthy DB connection")
	}
}
