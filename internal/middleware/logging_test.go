package middleware

import (
	"strings"
	"testing"
)

func TestRedactPath(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		path string
		want string
	}{
		{"no query", "/v1/bookings", "/v1/bookings"},
		{"unrelated query", "/v1/bookings?status=pending", "/v1/bookings?status=pending"},
		{"token only", "/v1/bookings/b-1/track?access_token=eyJhbGci.secret", "/v1/bookings/b-1/track?access_token=REDACTED"},
		{"token among others", "/v1/x?a=1&access_token=secret", "/v1/x?a=1&access_token=REDACTED"},
		{"similar name", "/v1/x?my_access_token_hint=1", "/v1/x?my_access_token_hint=1"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := RedactPath(tc.path)
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
			if strings.Contains(got, "secret") {
				t.Errorf("token leaked in %q", got)
			}
		})
	}
}
