package testutil

import (
	"strings"
	"testing"

	"circdesk/pkg/client"
)

// Do unwraps a typed client call so assertions can chain directly off it.
// Transport failures end the test; HTTP error statuses do not.
func Do(t *testing.T) func(resp *client.Response, err error) *client.Response {
	return func(resp *client.Response, err error) *client.Response {
		t.Helper()

		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		return resp
	}
}

func AssertStatusCode(t *testing.T, resp *client.Response, expected int) {
	t.Helper()

	if resp.StatusCode != expected {
		t.Fatalf("status code = %d, want %d\nbody: %s", resp.StatusCode, expected, string(resp.Body))
	}
}

func AssertContains(t *testing.T, resp *client.Response, substring string) {
	t.Helper()

	body := strings.ToLower(string(resp.Body))
	if !strings.Contains(body, strings.ToLower(substring)) {
		t.Errorf("response body does not contain %q\nbody: %s", substring, string(resp.Body))
	}
}
