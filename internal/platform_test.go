package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url  string
		want Platform
	}{
		{"https://www.youtube.com/watch?v=tAP1eZYEuKA", PlatformYouTube},
		{"https://youtu.be/tAP1eZYEuKA", PlatformYouTube},
		{"https://m.youtube.com/shorts/abc", PlatformYouTube},
		{"https://music.youtube.com/watch?v=x", PlatformYouTube},
		{"https://www.tiktok.com/@user/video/7234567890123456789", PlatformTikTok},
		{"https://vm.tiktok.com/ZMabc/", PlatformTikTok},
		{"https://example-video.test/abc123", PlatformOther},
		{"https://notyoutube.com/watch?v=x", PlatformOther},
		{"not a url", PlatformOther},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectPlatform(tt.url))
		})
	}
}
