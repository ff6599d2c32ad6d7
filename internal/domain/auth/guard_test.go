package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		in   GuardInput
		want Decision
	}{
		{
			name: "restoring with stored token",
			in:   GuardInput{Loading: true, HasStoredToken: true, RequireAdmin: true},
			want: DecisionLoading,
		},
		{
			name: "fresh visit",
			in:   GuardInput{RequireAdmin: true},
			want: DecisionRedirectToLogin,
		},
		{
			name: "stored token but no profile yet waits instead of granting",
			in:   GuardInput{HasStoredToken: true, RequireAdmin: true},
			want: DecisionLoading,
		},
		{
			name: "non admin on admin route",
			in:   GuardInput{IsAuthenticated: true, HasStoredToken: true, RequireAdmin: true},
			want: DecisionAccessDenied,
		},
		{
			name: "admin on admin route",
			in:   GuardInput{IsAuthenticated: true, IsAdmin: true, RequireAdmin: true},
			want: DecisionRender,
		},
		{
			name: "non admin on member route",
			in:   GuardInput{IsAuthenticated: true},
			want: DecisionRender,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.in))
		})
	}
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "access_denied", DecisionAccessDenied.String())
	assert.Equal(t, "unknown", Decision(99).String())
}
