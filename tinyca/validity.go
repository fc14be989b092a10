package tinyca

import (
	"errors"
	"strings"
	"time"
)

// ParseValidity parses the notBefore and notAfter strings into time.Time values.
// The notBefore and notAfter strings can be in RFC3339 format, or a duration
// from now.
// Durations are prefixed with either '+' or '-'.
// If notBefore is empty or "now", it is set to now.
// If notAfter is empty, it defaults to notBefore plus def.
// The minimum validity period is one minute.
func ParseValidity(nb, na string, def time.Duration, now time.Time) (time.Time, time.Time, error) {
	notBefore := now
	if nb != "" && nb != "now" {
		var err error
		if notBefore, err = parseTimeOrOffset(nb, now); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	notAfter := notBefore.Add(def)
	if na != "" {
		var err error
		if notAfter, err = parseTimeOrOffset(na, now); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if notBefore.After(notAfter) {
		return time.Time{}, time.Time{}, errors.New("negative validity period")
	}

	if notAfter.Sub(notBefore) < time.Minute {
		return time.Time{}, time.Time{}, errors.New("validity period is too short")
	}

	return notBefore, notAfter, nil
}

func parseTimeOrOffset(t string, now time.Time) (time.Time, error) {
	if strings.HasPrefix(t, "+") || strings.HasPrefix(t, "-") {
		d, err := time.ParseDuration(t)
		if err != nil {
			return time.Time{}, err
		}
		return now.Add(d), nil
	}
	return time.Parse(time.RFC3339, t)
}
