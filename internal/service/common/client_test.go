//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	api "github.com/oshokin/radio-alarm/internal/api/grpc/alarm"
	"github.com/oshokin/radio-alarm/internal/domain/alarm"
)

// TestDial_ValidatesAddress verifies that Dial rejects empty addresses.
func TestDial_ValidatesAddress(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "")
	require.Error(t, err)
	require.Nil(t, c)
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := &Client{
		callTimeout: 0,
	}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	c.callTimeout = 10 * time.Millisecond

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}

// recordingServer answers every method with a canned alarm and remembers the last actor.
type recordingServer struct {
	api.AlarmServiceServer

	// actor is the actor seen on the last request.
	actor *Actor
	// method is the last method called.
	method string
}

func (r *recordingServer) record(ctx context.Context, method string) (*structpb.Struct, error) {
	r.actor = ActorFromIncoming(ctx)
	r.method = method

	return api.EncodeView(api.View{Alarm: &alarm.Alarm{
		ID:      2,
		Station: &alarm.Station{Name: "FIP", URL: "https://icecast.radiofrance.fr/fip-hifi.aac"},
		Hour:    6,
		Minute:  45,
		Enabled: true,
	}})
}

// SetEnabled records the call.
func (r *recordingServer) SetEnabled(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return r.record(ctx, api.MethodSetEnabled)
}

// GetAlarm fails with NotFound.
func (r *recordingServer) GetAlarm(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.NotFound, "alarm 9 not found")
}

// TestClient_Invoke sends the actor and decodes the reply.
func TestClient_Invoke(t *testing.T) {
	t.Parallel()

	listener := bufconn.Listen(1 << 20)
	srv := new(recordingServer)
	server := grpc.NewServer()
	api.RegisterAlarmServiceServer(server, srv)

	go func() {
		_ = server.Serve(listener)
	}()

	defer server.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	defer func() {
		_ = conn.Close()
	}()

	actor := &Actor{Hostname: "studio", Username: "dj"}
	c := NewClient(conn, WithActor(actor), WithCallTimeout(time.Second))

	view, found, err := c.SetEnabled(context.Background(), 2, true)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "06:45", view.Alarm.Clock())
	require.Equal(t, api.MethodSetEnabled, srv.method)
	require.Equal(t, actor, srv.actor)

	_, err = c.GetAlarm(context.Background(), 9)
	require.Equal(t, codes.NotFound, status.Code(err))

	// Borrowed connections are not closed.
	require.NoError(t, c.Close())
}
