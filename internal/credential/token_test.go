package credential

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeToken builds an unsigned JWT with the given payload JSON.
func makeToken(payload string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	body := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return header + "." + body + ".sig"
}

func TestSubject(t *testing.T) {
	sub, err := Subject(makeToken(`{"sub":"user-42"}`))
	require.NoError(t, err)
	assert.Equal(t, "user-42", sub)
}

func TestSubjectFallsBackToUserID(t *testing.T) {
	sub, err := Subject(makeToken(`{"userId":"99"}`))
	require.NoError(t, err)
	assert.Equal(t, "99", sub)
}

func TestSubjectPrefersSub(t *testing.T) {
	sub, err := Subject(makeToken(`{"sub":"a","userId":"b"}`))
	require.NoError(t, err)
	assert.Equal(t, "a", sub)
}

func TestSubjectErrors(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "not a jwt", token: "opaque-token"},
		{name: "bad base64", token: "a.!!!.c"},
		{name: "bad json", token: makeToken(`{`)},
		{name: "no subject claim", token: makeToken(`{"iss":"forum"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Subject(tt.token)
			assert.Error(t, err)
		})
	}
}
