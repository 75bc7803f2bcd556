// Package timex holds a JSON-aware duration type shared by the config DTOs.
package timex

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidDuration = errors.New("invalid duration")

// Duration embeds time.Duration and accepts two JSON encodings: a
// time.ParseDuration string such as "15s", or a bare number of nanoseconds.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	}

	var ns float64
	if err := json.Unmarshal(data, &ns); err == nil {
		d.Duration = time.Duration(ns)
		return nil
	}

	return ErrInvalidDuration
}
