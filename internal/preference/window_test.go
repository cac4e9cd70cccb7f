package preference

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hh, mm int) time.Time {
	return time.Date(2026, 10, 19, hh, mm, 0, 0, time.UTC)
}

func TestWindowContains(t *testing.T) {
	tests := []struct {
		name string
		w    Window
		t    time.Time
		want bool
	}{
		{"disabled", Window{Enabled: false, Start: "09:00", End: "17:00"}, at(12, 0), false},
		{"inside same-day", Window{Enabled: true, Start: "09:00", End: "17:00"}, at(12, 0), true},
		{"start inclusive", Window{Enabled: true, Start: "09:00", End: "17:00"}, at(9, 0), true},
		{"end exclusive", Window{Enabled: true, Start: "09:00", End: "17:00"}, at(17, 0), false},
		{"before same-day", Window{Enabled: true, Start: "09:00", End: "17:00"}, at(8, 59), false},
		{"overnight late", Window{Enabled: true, Start: "22:00", End: "07:00"}, at(23, 30), true},
		{"overnight early", Window{Enabled: true, Start: "22:00", End: "07:00"}, at(6, 59), true},
		{"overnight midday", Window{Enabled: true, Start: "22:00", End: "07:00"}, at(12, 0), false},
		{"overnight end", Window{Enabled: true, Start: "22:00", End: "07:00"}, at(7, 0), false},
		{"zero length", Window{Enabled: true, Start: "10:00", End: "10:00"}, at(10, 0), false},
		{"malformed", Window{Enabled: true, Start: "9am", End: "17:00"}, at(12, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.w.Contains(tt.t))
		})
	}
}
