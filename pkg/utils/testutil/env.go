package testutil

import (
	"os"
	"testing"
)

// GetEnvOrSkip returns the environment variable value, skipping the test
// when it is unset. Used to gate tests that talk to a live Bitbucket Server.
func GetEnvOrSkip(t *testing.T, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s is not set, skipping", key)
	}
	return value
}
