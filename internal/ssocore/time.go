package ssocore

import "time"

// parseInstant parses a SAML xs:dateTime value. Accepts the canonical
// "...Z" form saml.SAMLTimeFormat produces as well as fractional-second
// variants IdPs commonly emit.
func parseInstant(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02T15:04:05.999999999Z07:00", v)
}

// isWithin reports whether instant is within maxAgeSeconds of now.
// maxAgeSeconds <= 0 means the window is disabled and always passes.
func isWithin(instant time.Time, now time.Time, maxAgeSeconds int) bool {
	if maxAgeSeconds <= 0 {
		return true
	}
	age := now.Sub(instant)
	if age < 0 {
		age = -age
	}
	return age <= time.Duration(maxAgeSeconds)*time.Second
}

// notBeforeOk reports whether a notBefore value of t is satisfied at now
// given skewSeconds of tolerance: valid when t - skew <= now.
func notBeforeOk(t time.Time, now time.Time, skewSeconds int) bool {
	skew := time.Duration(skewSeconds) * time.Second
	return !t.Add(-skew).After(now)
}

// notOnOrAfterOk reports whether a notOnOrAfter value of t is satisfied at
// now given skewSeconds of tolerance: valid when t + skew > now (strict).
func notOnOrAfterOk(t time.Time, now time.Time, skewSeconds int) bool {
	skew := time.Duration(skewSeconds) * time.Second
	return t.Add(skew).After(now)
}
