package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newSecureTokenServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "rt-1", r.PostForm.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","expires_in":3600,"token_type":"Bearer","refresh_token":"rt-1","id_token":"id-1","user_id":"u1"}`))
	}))
}

func TestRefreshTokenProvider(t *testing.T) {
	var hits atomic.Int32
	srv := newSecureTokenServer(t, &hits)
	defer srv.Close()

	p := NewRefreshTokenProvider("test-key", "rt-1")
	p.cfg.Endpoint.TokenURL = srv.URL + "?key=test-key"

	tok, err := p.Token(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "id-1", tok)

	_, err = p.Token(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "a valid token is reused")

	_, err = p.Token(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load(), "force refresh always hits the endpoint")

	p.SignOut()
	_, err = p.Token(context.Background(), true)
	assert.ErrorIs(t, err, ErrNoCurrentUser)
}

func TestRefreshTokenProviderDefaults(t *testing.T) {
	p := NewRefreshTokenProvider("k", "")
	assert.Equal(t, SecureTokenURL+"?key=k", p.cfg.Endpoint.TokenURL)
	assert.Equal(t, oauth2.AuthStyleInParams, p.cfg.Endpoint.AuthStyle)
	assert.NoError(t, p.WaitReady(context.Background()))
}
