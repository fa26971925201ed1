// Package testhelpers provides utilities for testing coldconnect-engine components.
package testhelpers

import (
	"encoding/base64"
	"fmt"
)

// GenerateTestJWT creates an unsigned (alg: none) JWT for use when auth
// verification is disabled. An empty email omits the claim.
func GenerateTestJWT(sub, email string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))

	payload := fmt.Sprintf(`{"sub":%q`, sub)
	if email != "" {
		payload += fmt.Sprintf(`,"email":%q`, email)
	}
	payload += "}"

	return fmt.Sprintf("%s.%s.", header, base64.RawURLEncoding.EncodeToString([]byte(payload)))
}

// GenerateTestJWTWithBearer returns the token with a "Bearer " prefix for
// the Authorization header.
func GenerateTestJWTWithBearer(sub, email string) string {
	return "Bearer " + GenerateTestJWT(sub, email)
}
