package httpx

import (
	"context"

	"github.com/loancollect/ldts/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyPrincipalID ctxKey = "principal_id"
	CtxKeyClaims      ctxKey = "claims"
)

// PrincipalIDFromCtx returns the authenticated principal id, or "".
func PrincipalIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyPrincipalID).(string); ok {
		return v
	}
	return ""
}

// ClaimsFromCtx returns the verified access-token claims, if any.
func ClaimsFromCtx(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}
