package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"[00:01:23]", 83, true},
		{"01:02:03", 3723, true},
		{"05:30", 330, true},
		{"[1:05] intro", 65, true},
		{"00:00:01.500", 1.5, true},
		{"no time here", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "00:00:00.000", FormatTimestamp(0))
	assert.Equal(t, "00:01:23.500", FormatTimestamp(83.5))
	assert.Equal(t, "01:02:03.000", FormatTimestamp(3723))
	assert.Equal(t, "00:00:00.000", FormatTimestamp(-4))
	assert.Equal(t, "00:01:00.000", FormatTimestamp(59.9996))
	assert.Equal(t, "01:00:00.000", FormatTimestamp(3599.9999))
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url string
		id  string
		ok  bool
	}{
		{"https://www.youtube.com/watch?v=tAP1eZYEuKA", "tAP1eZYEuKA", true},
		{"https://youtu.be/tAP1eZYEuKA?si=x", "tAP1eZYEuKA", true},
		{"https://www.youtube.com/embed/tAP1eZYEuKA", "tAP1eZYEuKA", true},
		{"https://www.youtube.com/shorts/abc123/", "abc123", true},
		{"https://m.youtube.com/live/xyz", "xyz", true},
		{"https://www.youtube.com/watch", "", false},
		{"https://www.tiktok.com/@u/video/1", "", false},
		{"tAP1eZYEuKA", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			id, ok := ExtractVideoID(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestURLWithTimestamp(t *testing.T) {
	assert.Equal(t,
		"https://www.youtube.com/embed/tAP1eZYEuKA?start=83",
		URLWithTimestamp("https://www.youtube.com/watch?v=tAP1eZYEuKA", 83.9, false))
	assert.Equal(t,
		"https://www.youtube.com/embed/tAP1eZYEuKA?start=5&autoplay=1&mute=1",
		URLWithTimestamp("https://youtu.be/tAP1eZYEuKA", 5, true))
	assert.Equal(t, "https://www.tiktok.com/@u/video/1", URLWithTimestamp("https://www.tiktok.com/@u/video/1", 5, false))
}
