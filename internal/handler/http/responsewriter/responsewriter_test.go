package responsewriter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapDefaults(t *testing.T) {
	w := Wrap(httptest.NewRecorder())
	assert.Equal(t, http.StatusOK, w.StatusCode())
	assert.Equal(t, 0, w.BytesWritten())
}

func TestWriteHeaderRecordsFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	w := Wrap(rec)

	w.WriteHeader(http.StatusServiceUnavailable)
	w.WriteHeader(http.StatusOK) // ignored, header already sent

	assert.Equal(t, http.StatusServiceUnavailable, w.StatusCode())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWriteCountsBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	w := Wrap(rec)

	n, err := w.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, w.BytesWritten())
	assert.Equal(t, http.StatusOK, w.StatusCode())
}
