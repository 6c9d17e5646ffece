package middleware

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")
	body := []byte(`{"items":[]}`)

	bs, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, body, gotBody)
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	_, _, _, ok := decodePayload([]byte{1, 2, 3})
	assert.False(t, ok)

	// Header length pointing past the buffer.
	bs, err := encodePayload(http.StatusOK, http.Header{}, nil)
	require.NoError(t, err)
	bs[7] = 0xFF
	_, _, _, ok = decodePayload(bs)
	assert.False(t, ok)
}
