//go:build integration

package repositories

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// uniqueEmail returns an owner email that no other test uses, so tests can
// share the container without cleanup between them.
func uniqueEmail(t *testing.T) string {
	t.Helper()
	name := strings.ToLower(strings.ReplaceAll(t.Name(), "/", "-"))
	return fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8])
}
