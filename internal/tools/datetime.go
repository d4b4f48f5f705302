package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// DateTimeTools answers time and date questions without a model round
// trip to anything external.
type DateTimeTools struct {
	loc *time.Location
	now func() time.Time
}

// NewDateTimeTools creates date/time tools for the given timezone name.
// An empty or unknown name falls back to the host's local zone.
func NewDateTimeTools(tzName string) *DateTimeTools {
	loc := time.Local
	if tzName != "" {
		if l, err := time.LoadLocation(tzName); err == nil {
			loc = l
		}
	}
	return &DateTimeTools{loc: loc, now: time.Now}
}

// RegisterAll adds the date/time tools to the registry.
func (dt *DateTimeTools) RegisterAll(r *Registry) {
	r.Register(&Tool{
		Name:        "get_current_time",
		Description: "Get comprehensive current time and date information",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: dt.handleCurrentTime,
	})

	r.Register(&Tool{
		Name:        "get_current_date",
		Description: "Get only the current date in readable format",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: dt.handleCurrentDate,
	})
}

func (dt *DateTimeTools) handleCurrentTime(ctx context.Context, args map[string]any) (string, error) {
	now := dt.now().In(dt.loc)
	zone, _ := now.Zone()

	info := map[string]any{
		"current_time":   now.Format("03:04:05 PM"),
		"current_date":   now.Format("Monday, January 2, 2006"),
		"iso_datetime":   now.Format(time.RFC3339),
		"timezone":       zone,
		"unix_timestamp": now.Unix(),
		"day_of_week":    now.Format("Monday"),
	}

	out, err := json.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("encode time info: %w", err)
	}
	return string(out), nil
}

func (dt *DateTimeTools) handleCurrentDate(ctx context.Context, args map[string]any) (string, error) {
	return dt.now().In(dt.loc).Format("Monday, January 2, 2006"), nil
}
