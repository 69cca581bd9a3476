// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package testhelper provides shared helpers for the test suites.
package testhelper

import (
	"net/http"
	"os"
	"testing"
)

const (
	// TestOnlineAPIURL is a reachable endpoint used by tests that perform real
	// network requests.
	TestOnlineAPIURL = "https://httpbin.org/json"

	// integrationEnv enables tests that require network access.
	integrationEnv = "PARKTRACK_INTEGRATION_TESTS"
)

// MockRoundTripper satisfies http.RoundTripper with a caller-provided function.
type MockRoundTripper struct {
	Fn func(req *http.Request) (*http.Response, error)
}

// RoundTrip executes the mocked round trip function.
func (m MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.Fn(req)
}

// PerformIntegrationTests skips the calling test unless integration tests are
// enabled via the environment.
func PerformIntegrationTests(t *testing.T) {
	t.Helper()
	if os.Getenv(integrationEnv) == "" {
		t.Skipf("set %s to run integration tests", integrationEnv)
	}
}
