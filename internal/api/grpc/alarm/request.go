package alarm

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/radio-alarm/internal/domain/alarm"
)

// Empty returns a message without fields.
func Empty() *structpb.Struct {
	return new(structpb.Struct)
}

// IDRequest addresses the alarm with the given id.
func IDRequest(id int) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldID: structpb.NewNumberValue(float64(id)),
	}}
}

// AddAlarmRequest asks for a new alarm for station at hour:minute.
func AddAlarmRequest(station *domain.Station, hour, minute int) (*structpb.Struct, error) {
	message, err := EncodeStation(station)
	if err != nil {
		return nil, err
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldStation: structpb.NewStructValue(message),
		FieldHour:    structpb.NewNumberValue(float64(hour)),
		FieldMinute:  structpb.NewNumberValue(float64(minute)),
	}}, nil
}

// SetEnabledRequest switches alarm id on or off.
func SetEnabledRequest(id int, enabled bool) *structpb.Struct {
	req := IDRequest(id)
	req.Fields[FieldEnabled] = structpb.NewBoolValue(enabled)

	return req
}

// ChangeTimeRequest moves alarm id to hour:minute.
func ChangeTimeRequest(id, hour, minute int) *structpb.Struct {
	req := IDRequest(id)
	req.Fields[FieldHour] = structpb.NewNumberValue(float64(hour))
	req.Fields[FieldMinute] = structpb.NewNumberValue(float64(minute))

	return req
}

// ChangeWeekDaysRequest toggles day for alarm id.
func ChangeWeekDaysRequest(id int, day time.Weekday) *structpb.Struct {
	req := IDRequest(id)
	req.Fields[FieldWeekDay] = structpb.NewNumberValue(float64(day))

	return req
}
