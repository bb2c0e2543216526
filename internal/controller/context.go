package controller

import (
	"context"

	"github.com/watchparty/server/internal/service/auth"
)

type contextKey int

const (
	connIdCtxKey contextKey = iota
	identityCtxKey
)

func (c *controller) getConnIdFromCtx(ctx context.Context) string {
	connId, ok := ctx.Value(connIdCtxKey).(string)
	if !ok {
		return ""
	}

	return connId
}

func (c *controller) getIdentityFromCtx(ctx context.Context) auth.Identity {
	identity, ok := ctx.Value(identityCtxKey).(auth.Identity)
	if !ok {
		return auth.Identity{}
	}

	return identity
}
