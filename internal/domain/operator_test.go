package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperatorToken(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		wantName string
		wantCode string
	}{
		{name: "simple", token: "Jane Doe (1234)", wantName: "Jane Doe", wantCode: "1234"},
		{name: "name with parentheses", token: "A B (Shift 2) (77)", wantName: "A B (Shift 2)", wantCode: "77"},
		{name: "surrounding whitespace", token: "  Worker C1   (405)", wantName: "Worker C1", wantCode: "405"},
		{name: "missing closing parenthesis", token: "Worker 101 (101", wantName: "Worker 101", wantCode: "101"},
		{name: "empty code", token: "Nobody ()", wantName: "Nobody", wantCode: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, code, err := ParseOperatorToken(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestParseOperatorToken_NoParenthesis(t *testing.T) {
	for _, token := range []string{"", "Jane Doe", "Jane Doe 1234)"} {
		_, _, err := ParseOperatorToken(token)
		assert.ErrorIs(t, err, ErrMalformedOperatorToken, token)
	}
}

func TestFormatOperatorToken_RoundTrip(t *testing.T) {
	token := FormatOperatorToken("A B (Shift 2)", "77")
	assert.Equal(t, "A B (Shift 2) (77)", token)

	name, code, err := ParseOperatorToken(token)
	require.NoError(t, err)
	assert.Equal(t, "A B (Shift 2)", name)
	assert.Equal(t, "77", code)
}
