package server

import (
	"context"
	"strings"

	errx "github.com/banxian-ai/server/internal/core/error"
)

// Authenticator resolves a bearer token to a stable client identity.
type Authenticator interface {
	Verify(ctx context.Context, token string) (clientID string, err error)
}

// StaticAuthenticator verifies tokens against a fixed token-to-client table
// loaded from configuration ("token:client,token:client,...").
type StaticAuthenticator struct {
	clients map[string]string
}

func NewStaticAuthenticator(spec string) *StaticAuthenticator {
	clients := make(map[string]string)
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, client, ok := strings.Cut(pair, ":")
		if !ok || token == "" || client == "" {
			continue
		}
		clients[token] = client
	}
	return &StaticAuthenticator{clients: clients}
}

func (a *StaticAuthenticator) Verify(_ context.Context, token string) (string, error) {
	client, ok := a.clients[token]
	if !ok {
		return "", errx.New(nil, 401, "invalid token")
	}
	return client, nil
}

var _ Authenticator = (*StaticAuthenticator)(nil)
