// Package icron adds introspection helpers on top of robfig/cron.
package icron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// TriggerInfo describes where a schedule sits relative to a reference
// time.
type TriggerInfo struct {
	Expression string
	Next       time.Time

	TimeUntilNext time.Duration
}

// GetTriggerInfo parses a standard 5-field cron expression (descriptors
// like @every 5m are accepted) and reports its next trigger after
// refTime.
func GetTriggerInfo(cronExpr string, refTime time.Time) (*TriggerInfo, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	next := schedule.Next(refTime)
	return &TriggerInfo{
		Expression:    cronExpr,
		Next:          next,
		TimeUntilNext: next.Sub(refTime),
	}, nil
}
