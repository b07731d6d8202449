package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "no origin header", origin: "", want: true},
		{name: "same host", origin: "http://desk.school.test", want: true},
		{name: "foreign origin, nothing configured", origin: "https://evil.test", want: false},
		{name: "configured origin", allowed: []string{"https://app.school.test/"}, origin: "https://app.school.test", want: true},
		{name: "configured origin is case-insensitive", allowed: []string{"https://App.School.test"}, origin: "https://app.school.test", want: true},
		{name: "other origin with list", allowed: []string{"https://app.school.test"}, origin: "https://evil.test", want: false},
		{name: "wildcard", allowed: []string{"*"}, origin: "https://evil.test", want: true},
		{name: "malformed origin", allowed: []string{"https://app.school.test"}, origin: "://bad", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "http://desk.school.test/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, checkOrigin(tt.allowed)(r))
		})
	}
}

func TestRedactQuery(t *testing.T) {
	assert.Equal(t, "", redactQuery(""))
	assert.Equal(t, "lang=uk&token=REDACTED", redactQuery("token=eyJhbGciOi.x.y&lang=uk"))
	assert.Equal(t, "student_id=s1", redactQuery("student_id=s1"))
	assert.Equal(t, "[unparsable]", redactQuery("a=%zz"))
}
