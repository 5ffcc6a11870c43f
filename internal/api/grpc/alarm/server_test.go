package alarm

import (
	"context"
	"errors"
	"fmt"
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

	domain "github.com/oshokin/radio-alarm/internal/domain/alarm"
	"github.com/oshokin/radio-alarm/internal/service/scheduler"
)

// fakeService keeps alarms in a slice and lets tests inject failures.
type fakeService struct {
	// alarms holds the alarms in insertion order.
	alarms []*domain.Alarm
	// err, when set, is returned by every mutation.
	err error
}

func (f *fakeService) find(id int) *domain.Alarm {
	for _, a := range f.alarms {
		if a.ID == id {
			return a
		}
	}

	return nil
}

func (f *fakeService) view(id int) View {
	a := f.find(id)
	if a == nil {
		return View{}
	}

	return View{Alarm: a.Clone()}
}

// AddAlarm appends an enabled alarm.
func (f *fakeService) AddAlarm(_ context.Context, station *domain.Station, hour, minute int) (View, error) {
	if f.err != nil {
		return View{}, f.err
	}

	if err := domain.ValidateTime(hour, minute); err != nil {
		return View{}, err
	}

	a := &domain.Alarm{ID: len(f.alarms), Station: station, Hour: hour, Minute: minute, Enabled: true}
	f.alarms = append(f.alarms, a)

	return View{Alarm: a.Clone(), NextFire: time.Date(2024, time.May, 15, hour, minute, 0, 0, time.UTC)}, nil
}

// ListAlarms returns every alarm.
func (f *fakeService) ListAlarms(context.Context) []View {
	views := make([]View, 0, len(f.alarms))
	for _, a := range f.alarms {
		views = append(views, View{Alarm: a.Clone()})
	}

	return views
}

// GetAlarm returns one alarm.
func (f *fakeService) GetAlarm(_ context.Context, id int) (View, bool) {
	v := f.view(id)

	return v, v.Alarm != nil
}

// SetEnabled switches an alarm.
func (f *fakeService) SetEnabled(_ context.Context, id int, enabled bool) (View, error) {
	if f.err != nil {
		return View{}, f.err
	}

	if a := f.find(id); a != nil {
		a.Enabled = enabled
	}

	return f.view(id), nil
}

// ChangeTime moves an alarm.
func (f *fakeService) ChangeTime(_ context.Context, id, hour, minute int) (View, error) {
	if err := domain.ValidateTime(hour, minute); err != nil {
		return View{}, err
	}

	if a := f.find(id); a != nil {
		a.Hour, a.Minute = hour, minute
	}

	return f.view(id), nil
}

// ChangeWeekDays toggles a weekday.
func (f *fakeService) ChangeWeekDays(_ context.Context, id int, day time.Weekday) (View, error) {
	if err := domain.ValidateWeekDay(day); err != nil {
		return View{}, err
	}

	if a := f.find(id); a != nil {
		a.WeekDays = a.WeekDays.Toggle(day)
	}

	return f.view(id), nil
}

// ToggleRepeating flips the repeating flag.
func (f *fakeService) ToggleRepeating(_ context.Context, id int) (View, error) {
	if a := f.find(id); a != nil {
		a.Repeating = !a.Repeating
	}

	return f.view(id), nil
}

// RemoveAlarm deletes an alarm.
func (f *fakeService) RemoveAlarm(_ context.Context, id int) error {
	if f.err != nil {
		return f.err
	}

	for i, a := range f.alarms {
		if a.ID == id {
			f.alarms = append(f.alarms[:i], f.alarms[i+1:]...)

			break
		}
	}

	return nil
}

// GetStation returns the station of an alarm.
func (f *fakeService) GetStation(_ context.Context, id int) (*domain.Station, bool) {
	a := f.find(id)
	if a == nil {
		return nil, false
	}

	return a.Station, true
}

// ResetAllAlarms returns the injected error.
func (f *fakeService) ResetAllAlarms(context.Context) error {
	return f.err
}

func jazz() *domain.Station {
	return &domain.Station{
		UUID:    "96062a7b-0601-11e8-ae97-52543be04c81",
		Name:    "Radio Swiss Jazz",
		URL:     "http://stream.srg-ssr.ch/m/rsj/mp3_128",
		Bitrate: 128,
	}
}

// dial serves srv over an in-memory listener and returns a connected client.
func dial(t *testing.T, srv AlarmServiceServer) *grpc.ClientConn {
	t.Helper()

	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	RegisterAlarmServiceServer(server, srv)

	go func() {
		_ = server.Serve(listener)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()

		server.Stop()
	})

	return conn
}

func invoke(t *testing.T, conn *grpc.ClientConn, method string, req *structpb.Struct) (*structpb.Struct, error) {
	t.Helper()

	resp := new(structpb.Struct)
	err := conn.Invoke(context.Background(), FullMethod(method), req, resp)

	return resp, err
}

// TestServer_OverTheWire exercises the hand-declared service descriptor end to end.
func TestServer_OverTheWire(t *testing.T) {
	t.Parallel()

	conn := dial(t, NewServer(new(fakeService)))

	req, err := AddAlarmRequest(jazz(), 7, 30)
	require.NoError(t, err)

	resp, err := invoke(t, conn, MethodAddAlarm, req)
	require.NoError(t, err)

	added, found, err := DecodeView(resp)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 0, added.Alarm.ID)
	require.Equal(t, jazz(), added.Alarm.Station)
	require.True(t, added.Alarm.Enabled)
	require.Equal(t, time.Date(2024, time.May, 15, 7, 30, 0, 0, time.UTC), added.NextFire.UTC())

	_, err = invoke(t, conn, MethodChangeWeekDays, ChangeWeekDaysRequest(0, time.Monday))
	require.NoError(t, err)

	_, err = invoke(t, conn, MethodToggleRepeating, IDRequest(0))
	require.NoError(t, err)

	resp, err = invoke(t, conn, MethodListAlarms, Empty())
	require.NoError(t, err)

	views, err := DecodeViews(resp)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.True(t, views[0].Alarm.Repeating)
	require.Equal(t, domain.WeekDays{time.Monday}, views[0].Alarm.WeekDays)
	require.True(t, views[0].NextFire.IsZero())

	resp, err = invoke(t, conn, MethodGetStation, IDRequest(0))
	require.NoError(t, err)

	station, err := DecodeStation(resp)
	require.NoError(t, err)
	require.Equal(t, jazz(), station)

	_, err = invoke(t, conn, MethodRemoveAlarm, IDRequest(0))
	require.NoError(t, err)

	_, err = invoke(t, conn, MethodGetAlarm, IDRequest(0))
	require.Equal(t, codes.NotFound, status.Code(err))

	_, err = invoke(t, conn, MethodResetAllAlarms, Empty())
	require.NoError(t, err)
}

// TestServer_UnknownIDs answers mutations of unknown alarms with an empty message.
func TestServer_UnknownIDs(t *testing.T) {
	t.Parallel()

	s := NewServer(new(fakeService))
	ctx := context.Background()

	resp, err := s.SetEnabled(ctx, SetEnabledRequest(4, true))
	require.NoError(t, err)

	_, found, err := DecodeView(resp)
	require.NoError(t, err)
	require.False(t, found)

	_, err = s.RemoveAlarm(ctx, IDRequest(4))
	require.NoError(t, err)

	_, err = s.GetStation(ctx, IDRequest(4))
	require.Equal(t, codes.NotFound, status.Code(err))
}

// TestServer_ErrorCodes maps request and service failures to status codes.
func TestServer_ErrorCodes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	for _, tc := range []struct {
		name string
		err  error
		call func(*Server) error
		want codes.Code
	}{
		{
			name: "missing id",
			call: func(s *Server) error {
				_, err := s.ToggleRepeating(ctx, Empty())

				return err
			},
			want: codes.InvalidArgument,
		},
		{
			name: "fractional id",
			call: func(s *Server) error {
				req := &structpb.Struct{Fields: map[string]*structpb.Value{FieldID: structpb.NewNumberValue(1.5)}}
				_, err := s.GetAlarm(ctx, req)

				return err
			},
			want: codes.InvalidArgument,
		},
		{
			name: "missing station",
			call: func(s *Server) error {
				_, err := s.AddAlarm(ctx, ChangeTimeRequest(0, 7, 0))

				return err
			},
			want: codes.InvalidArgument,
		},
		{
			name: "invalid time",
			call: func(s *Server) error {
				_, err := s.ChangeTime(ctx, ChangeTimeRequest(0, 24, 0))

				return err
			},
			want: codes.InvalidArgument,
		},
		{
			name: "invalid weekday",
			call: func(s *Server) error {
				_, err := s.ChangeWeekDays(ctx, ChangeWeekDaysRequest(0, time.Weekday(9)))

				return err
			},
			want: codes.InvalidArgument,
		},
		{
			name: "registration",
			err:  fmt.Errorf("%w: alarm 0: denied", scheduler.ErrRegistration),
			call: func(s *Server) error {
				_, err := s.SetEnabled(ctx, SetEnabledRequest(0, true))

				return err
			},
			want: codes.Unavailable,
		},
		{
			name: "persistence",
			err:  errors.New("disk full"),
			call: func(s *Server) error {
				_, err := s.RemoveAlarm(ctx, IDRequest(0))

				return err
			},
			want: codes.Internal,
		},
		{
			name: "reset",
			err:  errors.New("disk full"),
			call: func(s *Server) error {
				_, err := s.ResetAllAlarms(ctx, Empty())

				return err
			},
			want: codes.Internal,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := NewServer(&fakeService{err: tc.err})
			require.Equal(t, tc.want, status.Code(tc.call(s)))
		})
	}
}

// TestDecodeView_RejectsBadWeekDays refuses weekday codes outside the week.
func TestDecodeView_RejectsBadWeekDays(t *testing.T) {
	t.Parallel()

	resp, err := EncodeView(View{Alarm: &domain.Alarm{Station: jazz(), Hour: 6}})
	require.NoError(t, err)

	resp.Fields[FieldWeekDays] = structpb.NewListValue(&structpb.ListValue{
		Values: []*structpb.Value{structpb.NewNumberValue(8)},
	})

	_, _, err = DecodeView(resp)
	require.ErrorIs(t, err, domain.ErrInvalidWeekDay)
}
