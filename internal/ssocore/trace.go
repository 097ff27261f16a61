package ssocore

import "time"

// TraceEvent records one component's pass/fail outcome during a single
// Validate call, for the optional live trace stream above this package.
// The validator core never depends on anything consuming these; it just
// appends them to ValidationState.Trace as it runs.
type TraceEvent struct {
	Component string // "protocol", "decryption", "assertion"
	Step      string
	Passed    bool
	Detail    string
	At        time.Time
}

func (s *ValidationState) trace(component, step string, passed bool, detail string, now time.Time) {
	s.Trace = append(s.Trace, TraceEvent{
		Component: component,
		Step:      step,
		Passed:    passed,
		Detail:    detail,
		At:        now,
	})
}
