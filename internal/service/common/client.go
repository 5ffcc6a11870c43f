//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	api "github.com/oshokin/radio-alarm/internal/api/grpc/alarm"
	"github.com/oshokin/radio-alarm/internal/config"
	"github.com/oshokin/radio-alarm/internal/domain/alarm"
	"github.com/oshokin/radio-alarm/internal/version"
)

// Client talks to the radio alarm daemon.
type Client struct {
	// conn is the underlying gRPC connection to the daemon.
	conn grpc.ClientConnInterface
	// closer releases conn; nil for borrowed connections.
	closer func() error
	// actor is attached to every call when set.
	actor *Actor

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor identifies the caller in the daemon's audit log.
func WithActor(actor *Actor) Option {
	return func(c *Client) {
		c.actor = actor
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the daemon.
// Note: this uses insecure transport credentials; the daemon is meant to
// listen on loopback or a trusted network.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	// Use the non-context NewClient API recommended by grpc-go
	// (DialContext is deprecated as of grpc-go v1.60+).
	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUserAgent(version.UserAgent()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial alarm server: %w", err)
	}

	client := NewClient(conn, opts...)
	client.closer = conn.Close

	return client, nil
}

// NewClient wraps an existing connection. Close leaves conn open.
func NewClient(conn grpc.ClientConnInterface, opts ...Option) *Client {
	client := &Client{
		conn:        conn,
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}

	return c.closer()
}

// AddAlarm creates an enabled alarm for station at hour:minute.
func (c *Client) AddAlarm(ctx context.Context, station *alarm.Station, hour, minute int) (api.View, error) {
	req, err := api.AddAlarmRequest(station, hour, minute)
	if err != nil {
		return api.View{}, err
	}

	view, _, err := c.invokeView(ctx, api.MethodAddAlarm, req)

	return view, err
}

// ListAlarms returns every alarm.
func (c *Client) ListAlarms(ctx context.Context) ([]api.View, error) {
	resp, err := c.invoke(ctx, api.MethodListAlarms, api.Empty())
	if err != nil {
		return nil, err
	}

	return api.DecodeViews(resp)
}

// GetAlarm returns the alarm with the given id.
func (c *Client) GetAlarm(ctx context.Context, id int) (api.View, error) {
	view, _, err := c.invokeView(ctx, api.MethodGetAlarm, api.IDRequest(id))

	return view, err
}

// SetEnabled switches an alarm on or off. It reports false for unknown ids.
func (c *Client) SetEnabled(ctx context.Context, id int, enabled bool) (api.View, bool, error) {
	return c.invokeView(ctx, api.MethodSetEnabled, api.SetEnabledRequest(id, enabled))
}

// ChangeTime moves an alarm to hour:minute. It reports false for unknown ids.
func (c *Client) ChangeTime(ctx context.Context, id, hour, minute int) (api.View, bool, error) {
	return c.invokeView(ctx, api.MethodChangeTime, api.ChangeTimeRequest(id, hour, minute))
}

// ChangeWeekDays toggles day of an alarm. It reports false for unknown ids.
func (c *Client) ChangeWeekDays(ctx context.Context, id int, day time.Weekday) (api.View, bool, error) {
	return c.invokeView(ctx, api.MethodChangeWeekDays, api.ChangeWeekDaysRequest(id, day))
}

// ToggleRepeating flips the repeating flag. It reports false for unknown ids.
func (c *Client) ToggleRepeating(ctx context.Context, id int) (api.View, bool, error) {
	return c.invokeView(ctx, api.MethodToggleRepeating, api.IDRequest(id))
}

// RemoveAlarm deletes an alarm.
func (c *Client) RemoveAlarm(ctx context.Context, id int) error {
	_, err := c.invoke(ctx, api.MethodRemoveAlarm, api.IDRequest(id))

	return err
}

// GetStation returns the station of an alarm.
func (c *Client) GetStation(ctx context.Context, id int) (*alarm.Station, error) {
	resp, err := c.invoke(ctx, api.MethodGetStation, api.IDRequest(id))
	if err != nil {
		return nil, err
	}

	return api.DecodeStation(resp)
}

// ResetAllAlarms asks the daemon to re-register every enabled alarm.
func (c *Client) ResetAllAlarms(ctx context.Context) error {
	_, err := c.invoke(ctx, api.MethodResetAllAlarms, api.Empty())

	return err
}

func (c *Client) invokeView(ctx context.Context, method string, req *structpb.Struct) (api.View, bool, error) {
	resp, err := c.invoke(ctx, method, req)
	if err != nil {
		return api.View{}, false, err
	}

	return api.DecodeView(resp)
}

// invoke performs one unary call with the client's timeout and actor.
func (c *Client) invoke(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp := new(structpb.Struct)
	if err := c.conn.Invoke(c.actor.OutgoingContext(callCtx), api.FullMethod(method), req, resp); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	return resp, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
