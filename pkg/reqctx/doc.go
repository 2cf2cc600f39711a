// Package reqctx carries request-scoped data through context.Context.
//
// HTTP middleware stores a RequestMeta for every request and AuthClaims for
// authenticated ones; services and the logger read them back:
//
//	ctx = reqctx.WithRequestMeta(ctx, meta)
//	ctx = reqctx.WithClaims(ctx, claims)
//
//	rid := reqctx.RequestIDFromContext(ctx)
//	uid, ok := reqctx.UserIDFromContext(ctx)
//
// Context keys are unexported so only this package can set them.
package reqctx
