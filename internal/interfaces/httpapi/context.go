package httpapi

import (
	"context"

	"github.com/pucklab/roster-optimizer/internal/domain/credential"
)

type contextKey string

const credentialContextKey contextKey = "session_credential"

func withCredential(ctx context.Context, cred credential.Credential) context.Context {
	return context.WithValue(ctx, credentialContextKey, cred)
}

func credentialFromContext(ctx context.Context) (credential.Credential, bool) {
	cred, ok := ctx.Value(credentialContextKey).(credential.Credential)
	return cred, ok
}
