package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"fancontrol/internal/models"
	"fancontrol/internal/repository"
)

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

type EventLogService struct {
	events repository.EventRepo
}

func NewEventLogService(events repository.EventRepo) *EventLogService {
	return &EventLogService{events: events}
}

// normalizeToUTC returns t in UTC, preserving zero values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeAndValidateFilter prepares query parameters and validates the
// time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	typ := strings.TrimSpace(strings.ToUpper(f.Type))
	return from, to, typ, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.ControlEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.events.List(ctx, from, to, typ)
}
