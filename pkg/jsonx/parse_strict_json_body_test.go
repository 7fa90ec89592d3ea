package jsonx

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name string `json:"name"`
}

func parse(t *testing.T, body string) (payload, error) {
	t.Helper()
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	var dst payload
	err := ParseStrictJSONBody(req, &dst)
	return dst, err
}

func TestParseStrictJSONBody(t *testing.T) {
	dst, err := parse(t, `{"name":"a"}`)
	require.NoError(t, err)
	assert.Equal(t, "a", dst.Name)
}

func TestParseStrictJSONBodyEmpty(t *testing.T) {
	_, err := parse(t, "  \n ")
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func TestParseStrictJSONBodyTrailing(t *testing.T) {
	_, err := parse(t, `{"name":"a"} {"name":"b"}`)
	assert.ErrorIs(t, err, ErrTrailingJSON)
}

func TestParseStrictJSONBodyUnknownField(t *testing.T) {
	_, err := parse(t, `{"name":"a","extra":1}`)
	assert.Error(t, err)
}

func TestParseStrictJSONBodyMalformed(t *testing.T) {
	_, err := parse(t, `{"name":`)
	assert.Error(t, err)
}
