package ffmpeg_test

import (
	"testing"

	"github.com/aretw0/nvencoder/pkg/ffmpeg"
	"github.com/stretchr/testify/assert"
)

func TestDiagnose(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   string
	}{
		{
			name:   "empty",
			stderr: "  \n",
			want:   "unknown error (empty stderr)",
		},
		{
			name:   "driver too old",
			stderr: "[hevc_nvenc @ 0x1] Driver does not support the required nvenc API version. Required: 12.1 Found: 11.0\n[hevc_nvenc @ 0x1] The minimum required Nvidia driver for nvenc is 530.41.03 or newer",
			want:   "NVIDIA driver is too old for this ffmpeg build (driver 530.41.03 or newer required). Update the NVIDIA driver.",
		},
		{
			name:   "font missing",
			stderr: "[libass] fontselect: failed to find font 'Comic Sans'",
			want:   "subtitle font not found; add the missing fonts to /app/fonts",
		},
		{
			name:   "fontconfig generic",
			stderr: "Fontconfig error: Cannot load default config file",
			want:   "subtitle rendering error (libass/fontconfig); check the subtitle file and fonts",
		},
		{
			name:   "missing file",
			stderr: "[in#0 @ 0x1] Error opening input: /in/a.mkv: No such file or directory",
			want:   "file not found: /in/a.mkv",
		},
		{
			name:   "permission",
			stderr: "[out#0 @ 0x1] Error opening output /out/a.mp4: /out/a.mp4: Permission denied",
			want:   "permission denied: /out/a.mp4",
		},
		{
			name:   "tail",
			stderr: "1\n2\n\n3\n4\n5\n6\n",
			want:   "last ffmpeg messages: 2 | 3 | 4 | 5 | 6",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ffmpeg.Diagnose(tt.stderr, "/app/fonts"))
		})
	}
}

func TestSanitizeFilenamePart(t *testing.T) {
	assert.Equal(t, "untitled", ffmpeg.SanitizeFilenamePart("", 30))
	assert.Equal(t, "untitled", ffmpeg.SanitizeFilenamePart(" ..[]: ", 30))
	assert.Equal(t, "Episode 01 final", ffmpeg.SanitizeFilenamePart(`Episode 01: "final"?`, 50))
	assert.Equal(t, "Надп", ffmpeg.SanitizeFilenamePart("Надписи", 4), "cuts runes, not bytes")
	assert.Equal(t, "abc", ffmpeg.SanitizeFilenamePart("abc_-x", 5))
}
