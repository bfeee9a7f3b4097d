package service

import "context"

type requestInfoKey struct{}

// RequestInfo identifies the inbound request that triggered a carrier call.
// It ends up on the audit row.
type RequestInfo struct {
	URL       string
	UserAgent string
	// Actor is the authenticated admin, empty for public and internal calls.
	Actor string
}

func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFrom returns the request info attached by WithRequestInfo.
func RequestInfoFrom(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info, ok
}

func requestInfoFrom(ctx context.Context, fallbackURL string) RequestInfo {
	info, _ := RequestInfoFrom(ctx)
	if info.URL == "" {
		info.URL = fallbackURL
	}
	if info.UserAgent == "" {
		info.UserAgent = "system"
	}
	return info
}
