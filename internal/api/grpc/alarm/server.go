package alarm

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/radio-alarm/internal/domain/alarm"
	"github.com/oshokin/radio-alarm/internal/logger"
	"github.com/oshokin/radio-alarm/internal/service/scheduler"
	"github.com/oshokin/radio-alarm/internal/store"
)

// Service abstracts the business operations the transport layer depends on.
// Operations on unknown ids are no-ops, except the lookups which report false.
type Service interface {
	AddAlarm(ctx context.Context, station *domain.Station, hour, minute int) (View, error)
	ListAlarms(ctx context.Context) []View
	GetAlarm(ctx context.Context, id int) (View, bool)
	SetEnabled(ctx context.Context, id int, enabled bool) (View, error)
	ChangeTime(ctx context.Context, id, hour, minute int) (View, error)
	ChangeWeekDays(ctx context.Context, id int, day time.Weekday) (View, error)
	ToggleRepeating(ctx context.Context, id int) (View, error)
	RemoveAlarm(ctx context.Context, id int) error
	GetStation(ctx context.Context, id int) (*domain.Station, bool)
	ResetAllAlarms(ctx context.Context) error
}

// Server implements the AlarmService gRPC API.
type Server struct {
	// service provides the business logic for alarm operations.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// AddAlarm creates an enabled alarm and returns it.
func (s *Server) AddAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	stationMessage, err := StructField(req, FieldStation)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	station, err := DecodeStation(stationMessage)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	hour, minute, err := clockFields(req)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return s.reply(ctx, func() (View, error) {
		return s.service.AddAlarm(ctx, station, hour, minute)
	})
}

// ListAlarms returns every alarm in insertion order.
func (s *Server) ListAlarms(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	resp, err := EncodeViews(s.service.ListAlarms(ctx))
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return resp, nil
}

// GetAlarm returns one alarm or NotFound.
func (s *Server) GetAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := IntField(req, FieldID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	view, ok := s.service.GetAlarm(ctx, id)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "alarm %d not found", id)
	}

	resp, err := EncodeView(view)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return resp, nil
}

// SetEnabled switches an alarm on or off.
func (s *Server) SetEnabled(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := IntField(req, FieldID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	enabled, err := BoolField(req, FieldEnabled)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return s.reply(ctx, func() (View, error) {
		return s.service.SetEnabled(ctx, id, enabled)
	})
}

// ChangeTime moves an alarm to another time of day.
func (s *Server) ChangeTime(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := IntField(req, FieldID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	hour, minute, err := clockFields(req)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return s.reply(ctx, func() (View, error) {
		return s.service.ChangeTime(ctx, id, hour, minute)
	})
}

// ChangeWeekDays toggles one weekday of an alarm.
func (s *Server) ChangeWeekDays(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := IntField(req, FieldID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	day, err := IntField(req, FieldWeekDay)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return s.reply(ctx, func() (View, error) {
		return s.service.ChangeWeekDays(ctx, id, time.Weekday(day))
	})
}

// ToggleRepeating flips the repeating flag of an alarm.
func (s *Server) ToggleRepeating(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := IntField(req, FieldID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return s.reply(ctx, func() (View, error) {
		return s.service.ToggleRepeating(ctx, id)
	})
}

// RemoveAlarm deletes an alarm.
func (s *Server) RemoveAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := IntField(req, FieldID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	if err := s.service.RemoveAlarm(ctx, id); err != nil {
		return nil, toStatus(ctx, err)
	}

	return Empty(), nil
}

// GetStation returns the station of an alarm or NotFound.
func (s *Server) GetStation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := IntField(req, FieldID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	station, ok := s.service.GetStation(ctx, id)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "alarm %d not found", id)
	}

	resp, err := EncodeStation(station)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return resp, nil
}

// ResetAllAlarms re-registers every enabled alarm.
func (s *Server) ResetAllAlarms(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := s.service.ResetAllAlarms(ctx); err != nil {
		return nil, toStatus(ctx, err)
	}

	return Empty(), nil
}

// reply runs op and renders the resulting alarm; unknown alarms yield an empty message.
func (s *Server) reply(ctx context.Context, op func() (View, error)) (*structpb.Struct, error) {
	view, err := op()
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	resp, err := EncodeView(view)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return resp, nil
}

func clockFields(req *structpb.Struct) (int, int, error) {
	hour, err := IntField(req, FieldHour)
	if err != nil {
		return 0, 0, err
	}

	minute, err := IntField(req, FieldMinute)
	if err != nil {
		return 0, 0, err
	}

	return hour, minute, nil
}

// toStatus maps service errors to gRPC status codes.
func toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidTime),
		errors.Is(err, domain.ErrInvalidWeekDay),
		errors.Is(err, domain.ErrNoStation),
		errors.Is(err, store.ErrStationRequired):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, scheduler.ErrRegistration):
		logger.WarnKV(ctx, "Alarm saved but not registered", "error", err)

		return status.Error(codes.Unavailable, err.Error())
	default:
		logger.ErrorKV(ctx, "Alarm operation failed", "error", err)

		return status.Error(codes.Internal, "unable to persist alarms")
	}
}
