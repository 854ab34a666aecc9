package responses

import (
	"context"

	"github.com/google/uuid"
)

type requestInfoKey struct{}

// RequestInfo is seeded by the request-id middleware at the top of the chain.
// Inner middleware fill it in place so outer handlers (panic recovery, error
// bodies) can see who made the request after the context was replaced.
type RequestInfo struct {
	ID     string
	UserID uuid.UUID
}

func WithRequestInfo(ctx context.Context, info *RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFrom returns nil when no request-id middleware ran.
func RequestInfoFrom(ctx context.Context) *RequestInfo {
	if ctx == nil {
		return nil
	}
	info, _ := ctx.Value(requestInfoKey{}).(*RequestInfo)
	return info
}

func RequestIDFrom(ctx context.Context) string {
	if info := RequestInfoFrom(ctx); info != nil {
		return info.ID
	}
	return ""
}
