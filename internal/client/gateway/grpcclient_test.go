package gateway

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/dmitrijs2005/subguard/internal/client/ledger"
	"github.com/dmitrijs2005/subguard/internal/common"
)

type fakeRelayer struct {
	encryptErr error
	decryptErr error
	values     map[string]uint64

	lastContract, lastUser string
	lastValue              uint64
	calls                  int
}

func (f *fakeRelayer) Encrypt(_ context.Context, contract, user string, value uint64) (Ciphertext, error) {
	f.calls++
	f.lastContract, f.lastUser, f.lastValue = contract, user, value
	if f.encryptErr != nil {
		return Ciphertext{}, f.encryptErr
	}
	return Ciphertext{Handle: []byte{0xde, 0xad}, Proof: []byte{0x01}}, nil
}

func (f *fakeRelayer) PublicDecrypt(context.Context, []string) (map[string]uint64, []byte, error) {
	f.calls++
	if f.decryptErr != nil {
		return nil, nil, f.decryptErr
	}
	out := make(map[string]uint64, len(f.values))
	for h, v := range f.values {
		out[h] = v
	}
	return out, []byte{0xbe, 0xef}, nil
}

type fakeTx struct{ err error }

func (t fakeTx) Hash() string               { return "0x01" }
func (t fakeTx) Wait(context.Context) error { return t.err }

func startRelayer(t *testing.T, r Relayer, opts ...Option) *GRPCClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterRelayer(srv, r)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }
	opts = append([]Option{WithDialOptions(grpc.WithContextDialer(dialer))}, opts...)
	c, err := NewGRPCClient("passthrough:///bufnet", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGRPCClient_Encrypt(t *testing.T) {
	r := &fakeRelayer{}
	c := startRelayer(t, r)

	ct, err := c.Encrypt(context.Background(), "0xC0", "0xU5", 1599)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad}, ct.Handle)
	assert.Equal(t, []byte{0x01}, ct.Proof)
	assert.Equal(t, "0xC0", r.lastContract)
	assert.Equal(t, "0xU5", r.lastUser)
	assert.Equal(t, uint64(1599), r.lastValue)
}

func TestGRPCClient_Ping(t *testing.T) {
	c := startRelayer(t, &fakeRelayer{})
	require.NoError(t, c.Ping(context.Background()))
}

func TestGRPCClient_VerifyDecryption(t *testing.T) {
	r := &fakeRelayer{values: map[string]uint64{"0xaa": 42}}
	c := startRelayer(t, r)
	ctx := context.Background()

	var gotClear, gotProof []byte
	values, err := c.VerifyDecryption(ctx, []string{"0xaa"}, "0xU5", func(_ context.Context, clear, proof []byte) (ledger.Tx, error) {
		gotClear, gotProof = clear, proof
		return fakeTx{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]uint64{"0xaa": 42}, values)
	assert.Equal(t, []byte{0xbe, 0xef}, gotProof)

	decoded, err := ledger.DecodeClearValues(gotClear, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{42}, decoded)
}

func TestGRPCClient_VerifyDecryption_Errors(t *testing.T) {
	ctx := context.Background()
	noop := func(context.Context, []byte, []byte) (ledger.Tx, error) { return fakeTx{}, nil }

	t.Run("missing value", func(t *testing.T) {
		c := startRelayer(t, &fakeRelayer{values: map[string]uint64{}})
		_, err := c.VerifyDecryption(ctx, []string{"0xaa"}, "", noop)
		assert.ErrorIs(t, err, common.ErrGatewayUnavailable)
	})

	t.Run("callback error is passed through", func(t *testing.T) {
		c := startRelayer(t, &fakeRelayer{values: map[string]uint64{"0xaa": 1}})
		_, err := c.VerifyDecryption(ctx, []string{"0xaa"}, "", func(context.Context, []byte, []byte) (ledger.Tx, error) {
			return nil, common.ErrTransactionRejected
		})
		assert.ErrorIs(t, err, common.ErrTransactionRejected)
	})

	t.Run("confirmation error is passed through", func(t *testing.T) {
		c := startRelayer(t, &fakeRelayer{values: map[string]uint64{"0xaa": 1}})
		_, err := c.VerifyDecryption(ctx, []string{"0xaa"}, "", func(context.Context, []byte, []byte) (ledger.Tx, error) {
			return fakeTx{err: common.ErrTransactionReverted}, nil
		})
		assert.ErrorIs(t, err, common.ErrTransactionReverted)
	})
}

func TestGRPCClient_ErrorMapping(t *testing.T) {
	ctx := context.Background()

	t.Run("unavailable", func(t *testing.T) {
		c := startRelayer(t, &fakeRelayer{encryptErr: status.Error(codes.Unavailable, "relayer down")})
		_, err := c.Encrypt(ctx, "c", "u", 1)
		assert.ErrorIs(t, err, common.ErrGatewayUnavailable)
	})

	t.Run("application error", func(t *testing.T) {
		c := startRelayer(t, &fakeRelayer{encryptErr: errors.New("bad input")})
		_, err := c.Encrypt(ctx, "c", "u", 1)
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrGatewayUnavailable)
		assert.Equal(t, codes.Internal, status.Code(errors.Unwrap(err)))
	})
}

func TestGRPCClient_BreakerOpens(t *testing.T) {
	r := &fakeRelayer{encryptErr: status.Error(codes.Unavailable, "relayer down")}
	c := startRelayer(t, r, WithBreaker(2, 2, time.Minute))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.Encrypt(ctx, "c", "u", 1)
		require.ErrorIs(t, err, common.ErrGatewayUnavailable)
	}
	require.Equal(t, 2, r.calls)

	_, err := c.Encrypt(ctx, "c", "u", 1)
	assert.ErrorIs(t, err, common.ErrGatewayUnavailable)
	assert.Equal(t, 2, r.calls, "open breaker must not reach the relayer")
}

func TestLoopback(t *testing.T) {
	r := &fakeRelayer{values: map[string]uint64{"0xAA": 7}}
	l := Loopback{Relayer: r}

	_, err := l.Encrypt(context.Background(), "c", "u", 7)
	require.NoError(t, err)

	values, err := l.VerifyDecryption(context.Background(), []string{"0xaa"}, "", func(context.Context, []byte, []byte) (ledger.Tx, error) {
		return fakeTx{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), values["0xaa"])
}
