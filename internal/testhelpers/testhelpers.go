package testhelpers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// SetupTestDB connects to the integration test database and applies the
// schema. Tests that need a database are skipped when neither
// TEST_DATABASE_URL nor DATABASE_URL is set, so the pure state-machine
// tests still run everywhere.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	_ = godotenv.Load(filepath.Join(moduleRoot(), ".env"))

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL or DATABASE_URL not set; skipping database test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	schema, err := os.ReadFile(filepath.Join(moduleRoot(), "schema.sql"))
	if err != nil {
		t.Fatalf("Failed to read schema.sql: %v", err)
	}
	// Exec uses the extended protocol, one statement at a time.
	for _, stmt := range strings.Split(string(schema), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("Failed to apply schema: %v", err)
		}
	}

	return pool
}

// CleanupTestData removes rows created by tests. Test rows always use a
// clerk id with the "test-" prefix.
func CleanupTestData(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	if _, err := pool.Exec(ctx, "DELETE FROM user_preferences WHERE clerk_id LIKE 'test-%'"); err != nil {
		t.Logf("Warning: failed to cleanup test data: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM challenges WHERE id LIKE 'test-%'"); err != nil {
		t.Logf("Warning: failed to cleanup test challenges: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM store_items WHERE id LIKE 'test-%'"); err != nil {
		t.Logf("Warning: failed to cleanup test store items: %v", err)
	}
	pool.Close()
}

// GenerateMockClerkJWT signs a Clerk-shaped session token for tests that
// only need a syntactically valid bearer token.
func GenerateMockClerkJWT(clerkID string) (string, error) {
	secretKey := []byte("test-secret-key-for-testing-only")

	claims := jwt.MapClaims{
		"sub": clerkID,
		"iss": "https://clerk.test",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour * 24).Unix(),
		"azp": "test-app-id",
		"sid": "sess_test123",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// MockClerkWebhookPayload builds a minimal Clerk webhook body.
func MockClerkWebhookPayload(eventType string, clerkID string) []byte {
	return []byte(fmt.Sprintf(`{"type": %q, "data": {"id": %q}}`, eventType, clerkID))
}

func moduleRoot() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..")
}
