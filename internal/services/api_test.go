package services

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/readlog/internal/shared"
)

func TestParseContentRange(t *testing.T) {
	tests := []struct {
		header  string
		total   int
		wantErr bool
	}{
		{header: "0-14/23", total: 23},
		{header: "15-22/23", total: 23},
		{header: "*/0", total: 0},
		{header: "items 0-9/100", total: 100},
		{header: "", wantErr: true},
		{header: "0-14", wantErr: true},
		{header: "0-14/*", wantErr: true},
		{header: "0-14/-1", wantErr: true},
		{header: "0-14/many", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			total, err := parseContentRange(tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, shared.ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)
		})
	}
}

func TestAPIError(t *testing.T) {
	t.Run("rest error body", func(t *testing.T) {
		err := decodeAPIError(http.StatusBadRequest, []byte(`{"code":"23514","message":"new row violates check constraint","details":"Failing row contains (...)","hint":null}`))
		assert.ErrorIs(t, err, shared.ErrAPIRequest)
		assert.NotErrorIs(t, err, shared.ErrNotAuthenticated)
		assert.Equal(t, "backend error (status 400): new row violates check constraint (Failing row contains (...))", err.Error())
	})

	t.Run("auth error body", func(t *testing.T) {
		err := decodeAPIError(http.StatusUnauthorized, []byte(`{"error":"invalid_grant","error_description":"Invalid Refresh Token"}`))
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
		assert.Contains(t, err.Error(), "Invalid Refresh Token")
	})

	t.Run("plain text body", func(t *testing.T) {
		err := decodeAPIError(http.StatusBadGateway, []byte("bad gateway\n"))
		assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
		assert.Contains(t, err.Error(), "bad gateway")
	})

	t.Run("empty body", func(t *testing.T) {
		err := decodeAPIError(http.StatusNotFound, nil)
		assert.Contains(t, err.Error(), "Not Found")
		assert.True(t, isStatus(err, http.StatusNotFound))
		assert.False(t, isStatus(err, http.StatusNotAcceptable))
	})
}
