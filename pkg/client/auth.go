package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNoCurrentUser is returned by an AuthProvider while nobody is signed in.
// GetAuthHeaders treats it as retryable.
var ErrNoCurrentUser = errors.New("no current user")

// AuthProvider supplies Firebase ID tokens for the signed-in user.
type AuthProvider interface {
	// WaitReady blocks until the provider knows whether a user is signed in,
	// or ctx is done.
	WaitReady(ctx context.Context) error
	// Token returns the current user's ID token, refreshing it first when
	// forceRefresh is set. It returns ErrNoCurrentUser when nobody is signed in.
	Token(ctx context.Context, forceRefresh bool) (string, error)
}

// SecureTokenURL is the Firebase endpoint that exchanges refresh tokens.
const SecureTokenURL = "https://securetoken.googleapis.com/v1/token"

// RefreshTokenProvider signs in with a Firebase refresh token and exchanges it
// for ID tokens on the secure-token endpoint.
type RefreshTokenProvider struct {
	mu           sync.Mutex
	cfg          oauth2.Config
	refreshToken string
	current      *oauth2.Token
	idToken      string
	httpClient   *http.Client
}

// NewRefreshTokenProvider returns a provider for the Firebase project owning
// apiKey. An empty refreshToken starts signed out.
func NewRefreshTokenProvider(apiKey, refreshToken string) *RefreshTokenProvider {
	return &RefreshTokenProvider{
		cfg: oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL:  SecureTokenURL + "?key=" + apiKey,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		refreshToken: refreshToken,
	}
}

// SignIn replaces the stored refresh token.
func (p *RefreshTokenProvider) SignIn(refreshToken string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshToken = refreshToken
	p.current = nil
	p.idToken = ""
}

func (p *RefreshTokenProvider) SignOut() {
	p.SignIn("")
}

// WaitReady returns at once; the state is known from construction.
func (p *RefreshTokenProvider) WaitReady(ctx context.Context) error {
	return ctx.Err()
}

func (p *RefreshTokenProvider) Token(ctx context.Context, forceRefresh bool) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.refreshToken == "" {
		return "", ErrNoCurrentUser
	}
	if !forceRefresh && p.current.Valid() && p.idToken != "" {
		return p.idToken, nil
	}

	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}
	tok, err := p.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: p.refreshToken}).Token()
	if err != nil {
		return "", fmt.Errorf("failed to refresh ID token: %w", err)
	}
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return "", errors.New("secure token response has no id_token")
	}
	p.current = tok
	p.idToken = idToken
	if tok.RefreshToken != "" {
		p.refreshToken = tok.RefreshToken
	}
	return idToken, nil
}

// StaticTokenProvider always returns the same token. It suits service
// accounts and tests.
type StaticTokenProvider string

func (StaticTokenProvider) WaitReady(context.Context) error { return nil }

func (s StaticTokenProvider) Token(context.Context, bool) (string, error) {
	if s == "" {
		return "", ErrNoCurrentUser
	}
	return string(s), nil
}
