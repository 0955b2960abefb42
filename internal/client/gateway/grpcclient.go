package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmitrijs2005/subguard/internal/common"
	"github.com/dmitrijs2005/subguard/internal/logging"
)

const (
	DefaultTimeout      = 30 * time.Second
	defaultBreakerDelay = 15 * time.Second
)

// GRPCClient is a relayer client. Every call goes through a circuit breaker
// that opens after repeated transport failures; calls are never retried.
type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	timeout     time.Duration
	breaker     circuitbreaker.CircuitBreaker[any]
	log         logging.Logger

	dialOpts []grpc.DialOption
	failures uint
	window   uint
	delay    time.Duration
}

type Option func(*GRPCClient)

func WithTimeout(d time.Duration) Option {
	return func(c *GRPCClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(c *GRPCClient) { c.log = l }
}

func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *GRPCClient) { c.dialOpts = append(c.dialOpts, opts...) }
}

// WithBreaker trips the breaker after failures out of the last window calls
// and keeps it open for delay.
func WithBreaker(failures, window uint, delay time.Duration) Option {
	return func(c *GRPCClient) {
		c.failures, c.window, c.delay = failures, window, delay
	}
}

func NewGRPCClient(endpointURL string, opts ...Option) (*GRPCClient, error) {
	c := &GRPCClient{
		endpointURL: endpointURL,
		timeout:     DefaultTimeout,
		log:         logging.Discard(),
		failures:    3,
		window:      5,
		delay:       defaultBreakerDelay,
	}
	for _, o := range opts {
		o(c)
	}

	c.breaker = circuitbreaker.NewBuilder[any]().
		HandleIf(func(_ any, err error) bool { return isTransportFailure(err) }).
		WithFailureThresholdRatio(c.failures, c.window).
		WithDelay(c.delay).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			c.log.Warn(context.Background(), "gateway circuit breaker state change",
				"endpoint", c.endpointURL, "from", e.OldState, "to", e.NewState)
		}).
		Build()

	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, c.dialOpts...)
	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) invoke(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	resp := &structpb.Struct{}
	_, err := failsafe.With(c.breaker).WithContext(ctx).Get(func() (any, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		return nil, c.conn.Invoke(callCtx, method, req, resp)
	})
	if err != nil {
		return nil, c.mapError(err)
	}
	return resp, nil
}

func (c *GRPCClient) Encrypt(ctx context.Context, contract, user string, value uint64) (Ciphertext, error) {
	req, err := encryptRequest(contract, user, value)
	if err != nil {
		return Ciphertext{}, err
	}
	resp, err := c.invoke(ctx, EncryptMethod, req)
	if err != nil {
		return Ciphertext{}, err
	}
	ct, err := decodeEncryptResponse(resp)
	if err != nil {
		return Ciphertext{}, fmt.Errorf("%w: malformed encrypt response: %w", common.ErrGatewayUnavailable, err)
	}
	return ct, nil
}

func (c *GRPCClient) VerifyDecryption(ctx context.Context, handles []string, requester string, onProofReady ProofCallback) (map[string]uint64, error) {
	req, err := decryptRequest(handles)
	if err != nil {
		return nil, err
	}
	resp, err := c.invoke(ctx, PublicDecryptMethod, req)
	if err != nil {
		return nil, err
	}
	values, proof, err := decodeDecryptResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed decrypt response: %w", common.ErrGatewayUnavailable, err)
	}
	c.log.Debug(ctx, "decryption proof ready", "handles", len(handles), "requester", requester)
	return settle(ctx, handles, values, proof, onProofReady)
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	resp, err := c.invoke(ctx, PingMethod, &structpb.Struct{})
	if err != nil {
		return err
	}
	if resp.GetFields()["status"].GetStringValue() != "OK" {
		return common.ErrGatewayUnavailable
	}
	return nil
}

func isTransportFailure(err error) bool {
	if err == nil {
		return false
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return true
	}
	return false
}

func (c *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	st, ok := status.FromError(err)
	if !ok {
		// breaker rejections and other non-RPC failures
		return fmt.Errorf("%w: %w", common.ErrGatewayUnavailable, err)
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", common.ErrGatewayUnavailable, st.Message())
	case codes.Canceled:
		return context.Canceled
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
