package logtrace

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ctxKey string

const xidKey ctxKey = "xid"

// WithXid returns a context whose logger carries the transaction id.
func WithXid(ctx context.Context, xid string) context.Context {
	ctx = context.WithValue(ctx, xidKey, xid)
	l := log.Ctx(ctx).With().Str("xid", xid).Logger()
	return l.WithContext(ctx)
}

func XidFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	r, ok := ctx.Value(xidKey).(string)
	if !ok {
		return ""
	}
	return r
}

func IsTraceEnabled() bool {
	return zerolog.GlobalLevel() <= zerolog.TraceLevel
}
