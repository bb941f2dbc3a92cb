package context_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	appCtx "github.com/chemimartinez77/clubdn-sub002/internal/pkg/context"
)

func TestRequestID_RoundTrip(t *testing.T) {
	ctx := appCtx.WithRequestID(context.Background(), "rid-1")
	assert.Equal(t, "rid-1", appCtx.GetRequestID(ctx))
	assert.Equal(t, "rid-1", appCtx.GetRequestIDOr(ctx, "fallback"))
}

func TestRequestID_Absent(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", appCtx.GetRequestID(ctx))
	assert.Equal(t, "fallback", appCtx.GetRequestIDOr(ctx, "fallback"))
}
