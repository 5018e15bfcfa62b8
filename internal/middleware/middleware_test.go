package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/pocketledger/internal/auth"
)

type fakeLock struct {
	set bool
	err error
}

func (f fakeLock) IsSet(context.Context) (bool, error)       { return f.set, f.err }
func (f fakeLock) Set(context.Context, string, string) error { return nil }
func (f fakeLock) Verify(context.Context, string) error      { return nil }
func (f fakeLock) ValidateCredential(string) error           { return nil }

type empty struct{}

func invoke(t *testing.T, interceptor connect.UnaryInterceptorFunc, header string) (context.Context, error) {
	t.Helper()
	var seen context.Context
	next := connect.UnaryFunc(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		seen = ctx
		return connect.NewResponse(&empty{}), nil
	})

	req := connect.NewRequest(&empty{})
	if header != "" {
		req.Header().Set("Authorization", header)
	}
	_, err := interceptor(next)(context.Background(), req)
	return seen, err
}

func TestRequireAuthOpenWithoutPassword(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret-key-with-enough-bytes", time.Hour)

	ctx, err := invoke(t, RequireAuth(jwtManager, fakeLock{set: false}), "")
	require.NoError(t, err)
	require.Nil(t, GetSession(ctx))
}

func TestRequireAuthLocked(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret-key-with-enough-bytes", time.Hour)
	interceptor := RequireAuth(jwtManager, fakeLock{set: true})

	_, err := invoke(t, interceptor, "")
	require.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	_, err = invoke(t, interceptor, "Token abc")
	require.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	_, err = invoke(t, interceptor, "Bearer not-a-jwt")
	require.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	token, _, err := jwtManager.Generate()
	require.NoError(t, err)
	ctx, err := invoke(t, interceptor, "Bearer "+token)
	require.NoError(t, err)
	require.NotNil(t, GetSession(ctx))
}

func TestRequireAuthStorageFailure(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret-key-with-enough-bytes", time.Hour)

	_, err := invoke(t, RequireAuth(jwtManager, fakeLock{err: errors.New("disk gone")}), "")
	require.Equal(t, connect.CodeUnavailable, connect.CodeOf(err))
}

func TestMetricsInterceptorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	_, err := invoke(t, m.Interceptor(), "")
	require.NoError(t, err)
	_, err = invoke(t, m.Interceptor(), "")
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range families {
		if mf.GetName() != "pocketledger_rpc_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	require.Equal(t, float64(2), total)
}
