package client

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptEmbedded(t *testing.T) {
	data, err := GetFile(ScriptName)
	require.NoError(t, err)
	assert.Contains(t, string(data), "lv-root")
}

func TestHandler(t *testing.T) {
	h := http.StripPrefix("/_live/", Handler())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/_live/"+ScriptName, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "javascript")
}
