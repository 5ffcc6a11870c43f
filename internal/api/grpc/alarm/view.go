package alarm

import (
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/radio-alarm/internal/domain/alarm"
)

// Field names used in requests and responses.
const (
	FieldID        = "id"
	FieldStation   = "station"
	FieldHour      = "hour"
	FieldMinute    = "minute"
	FieldTime      = "time"
	FieldEnabled   = "enabled"
	FieldRepeating = "repeating"
	FieldWeekDays  = "weekdays"
	FieldWeekDay   = "weekday"
	FieldNextFire  = "next_fire"
	FieldAlarms    = "alarms"
)

// ErrInvalidRequest is returned when a message lacks a field or holds one of the wrong type.
var ErrInvalidRequest = errors.New("invalid request")

// View is an alarm together with its next registered fire time.
type View struct {
	// Alarm is a snapshot of the alarm.
	Alarm *domain.Alarm
	// NextFire is zero when the alarm holds no registration.
	NextFire time.Time
}

// EncodeView renders v as a response message.
func EncodeView(v View) (*structpb.Struct, error) {
	a := v.Alarm
	if a == nil {
		return new(structpb.Struct), nil
	}

	station, err := EncodeStation(a.Station)
	if err != nil {
		return nil, err
	}

	days := make([]*structpb.Value, 0, len(a.WeekDays))
	for _, day := range a.WeekDays.Sorted() {
		days = append(days, structpb.NewNumberValue(float64(day)))
	}

	fields := map[string]*structpb.Value{
		FieldID:        structpb.NewNumberValue(float64(a.ID)),
		FieldStation:   structpb.NewStructValue(station),
		FieldHour:      structpb.NewNumberValue(float64(a.Hour)),
		FieldMinute:    structpb.NewNumberValue(float64(a.Minute)),
		FieldTime:      structpb.NewStringValue(a.Clock()),
		FieldEnabled:   structpb.NewBoolValue(a.Enabled),
		FieldRepeating: structpb.NewBoolValue(a.Repeating),
		FieldWeekDays:  structpb.NewListValue(&structpb.ListValue{Values: days}),
	}

	if !v.NextFire.IsZero() {
		fields[FieldNextFire] = structpb.NewStringValue(v.NextFire.Format(time.RFC3339))
	}

	return &structpb.Struct{Fields: fields}, nil
}

// DecodeView parses a message produced by EncodeView.
// It reports false for the empty message returned for unknown alarms.
func DecodeView(s *structpb.Struct) (View, bool, error) {
	if len(s.GetFields()) == 0 {
		return View{}, false, nil
	}

	var (
		a   = new(domain.Alarm)
		err error
	)

	if a.ID, err = IntField(s, FieldID); err != nil {
		return View{}, false, err
	}

	if a.Hour, err = IntField(s, FieldHour); err != nil {
		return View{}, false, err
	}

	if a.Minute, err = IntField(s, FieldMinute); err != nil {
		return View{}, false, err
	}

	if a.Enabled, err = BoolField(s, FieldEnabled); err != nil {
		return View{}, false, err
	}

	if a.Repeating, err = BoolField(s, FieldRepeating); err != nil {
		return View{}, false, err
	}

	if a.WeekDays, err = weekDaysField(s, FieldWeekDays); err != nil {
		return View{}, false, err
	}

	stationMessage, err := StructField(s, FieldStation)
	if err != nil {
		return View{}, false, err
	}

	if a.Station, err = DecodeStation(stationMessage); err != nil {
		return View{}, false, err
	}

	view := View{Alarm: a}

	if raw, ok := s.GetFields()[FieldNextFire]; ok {
		if view.NextFire, err = time.Parse(time.RFC3339, raw.GetStringValue()); err != nil {
			return View{}, false, fmt.Errorf("%w: %s: %w", ErrInvalidRequest, FieldNextFire, err)
		}
	}

	return view, true, nil
}

// EncodeViews renders a list of alarms.
func EncodeViews(views []View) (*structpb.Struct, error) {
	items := make([]*structpb.Value, 0, len(views))

	for _, v := range views {
		item, err := EncodeView(v)
		if err != nil {
			return nil, err
		}

		items = append(items, structpb.NewStructValue(item))
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldAlarms: structpb.NewListValue(&structpb.ListValue{Values: items}),
	}}, nil
}

// DecodeViews parses a message produced by EncodeViews.
func DecodeViews(s *structpb.Struct) ([]View, error) {
	list, ok := s.GetFields()[FieldAlarms]
	if !ok {
		return nil, nil
	}

	items := list.GetListValue().GetValues()
	views := make([]View, 0, len(items))

	for _, item := range items {
		v, found, err := DecodeView(item.GetStructValue())
		if err != nil {
			return nil, err
		}

		if found {
			views = append(views, v)
		}
	}

	return views, nil
}

// EncodeStation renders a station through its serialized form.
func EncodeStation(station *domain.Station) (*structpb.Struct, error) {
	blob, err := station.Encode()
	if err != nil {
		return nil, err
	}

	message := new(structpb.Struct)
	if err := message.UnmarshalJSON([]byte(blob)); err != nil {
		return nil, fmt.Errorf("encode station: %w", err)
	}

	return message, nil
}

// DecodeStation parses a message produced by EncodeStation.
func DecodeStation(s *structpb.Struct) (*domain.Station, error) {
	if len(s.GetFields()) == 0 {
		return nil, domain.ErrNoStation
	}

	blob, err := s.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("decode station: %w", err)
	}

	return domain.DecodeStation(string(blob))
}

// IntField reads an integral number.
func IntField(s *structpb.Struct, name string) (int, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidRequest, name)
	}

	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidRequest, name)
	}

	return int(n.NumberValue), nil
}

// BoolField reads a boolean.
func BoolField(s *structpb.Struct, name string) (bool, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return false, fmt.Errorf("%w: %s is required", ErrInvalidRequest, name)
	}

	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, fmt.Errorf("%w: %s must be a boolean", ErrInvalidRequest, name)
	}

	return b.BoolValue, nil
}

// StructField reads a nested message.
func StructField(s *structpb.Struct, name string) (*structpb.Struct, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s is required", ErrInvalidRequest, name)
	}

	nested, ok := v.GetKind().(*structpb.Value_StructValue)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an object", ErrInvalidRequest, name)
	}

	return nested.StructValue, nil
}

func weekDaysField(s *structpb.Struct, name string) (domain.WeekDays, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return domain.WeekDays{}, nil
	}

	items := v.GetListValue().GetValues()
	days := make(domain.WeekDays, 0, len(items))

	for _, item := range items {
		day := time.Weekday(item.GetNumberValue())
		if err := domain.ValidateWeekDay(day); err != nil {
			return nil, err
		}

		days = append(days, day)
	}

	return days, nil
}
