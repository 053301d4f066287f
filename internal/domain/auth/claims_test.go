package auth

import (
	"encoding/base64"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRoles(t *testing.T) {
	tests := []struct {
		name   string
		claims map[string]any
		want   []string
	}{
		{
			name:   "prefix exact with foreign and non-string entries",
			claims: map[string]any{"groups": []any{"fiberq_admin", "other_admin", float64(42)}},
			want:   []string{"admin"},
		},
		{
			name:   "missing groups",
			claims: map[string]any{},
			want:   []string{},
		},
		{
			name:   "groups not an array",
			claims: map[string]any{"groups": "not-an-array"},
			want:   []string{},
		},
		{
			name:   "nil claims",
			claims: nil,
			want:   []string{},
		},
		{
			name:   "order preserved and duplicates kept",
			claims: map[string]any{"groups": []any{"fiberq_engineer", map[string]any{"x": 1}, "fiberq_admin", "fiberq_engineer"}},
			want:   []string{"engineer", "admin", "engineer"},
		},
		{
			name:   "typed string slice",
			claims: map[string]any{"groups": []string{"fiberq_field_worker", "fiberq"}},
			want:   []string{"field_worker"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractRoles(tt.claims)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractRolesWithPrefix(t *testing.T) {
	got := ExtractRolesWithPrefix(map[string]any{"groups": []any{"acme_ops", "fiberq_admin"}}, "acme_")
	assert.Equal(t, []string{"ops"}, got)
}

func TestDecodeClaims(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    "user-1",
		"groups": []string{"fiberq_admin"},
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	claims := DecodeClaims(signed)
	assert.Equal(t, "user-1", claims["sub"])
	assert.Equal(t, []string{"admin"}, ExtractRoles(claims))
}

func TestDecodeClaims_Totality(t *testing.T) {
	payload := base64.URLEncoding.EncodeToString([]byte(`{"sub":"padded"}`))
	arrayPayload := base64.RawURLEncoding.EncodeToString([]byte(`[1,2,3]`))
	nullPayload := base64.RawURLEncoding.EncodeToString([]byte(`null`))

	tests := []struct {
		name  string
		token string
		want  map[string]any
	}{
		{name: "four segments", token: "not.a.validtoken.extra", want: map[string]any{}},
		{name: "one segment", token: "abc", want: map[string]any{}},
		{name: "empty", token: "", want: map[string]any{}},
		{name: "bad base64", token: "a.%%%.c", want: map[string]any{}},
		{name: "not json", token: "a." + base64.RawURLEncoding.EncodeToString([]byte("nope")) + ".c", want: map[string]any{}},
		{name: "json array", token: "a." + arrayPayload + ".c", want: map[string]any{}},
		{name: "json null", token: "a." + nullPayload + ".c", want: map[string]any{}},
		{name: "padded base64url", token: "a." + payload + ".c", want: map[string]any{"sub": "padded"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Equal(t, tt.want, DecodeClaims(tt.token))
			})
		})
	}
}
