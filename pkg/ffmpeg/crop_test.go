package ffmpeg_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/nvencoder/internal/testutils"
	"github.com/aretw0/nvencoder/pkg/domain"
	"github.com/aretw0/nvencoder/pkg/ffmpeg"
	"github.com/aretw0/nvencoder/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sourceReport = `Input #0, matroska,webm, from 'a.mkv':
  Stream #0:0: Video: h264 (High), yuv420p(tv, bt709, progressive), 1920x1080 [SAR 1:1 DAR 16:9], 23.98 fps
At least one output file must be specified
`

func cropFake(report string) *testutils.FakeExecutor {
	return testutils.NewFakeExecutor().Handle("ffmpeg", byFlag(map[string]testutils.Handler{
		"-t": testutils.Respond("", report, 0),
	}, testutils.Respond("", sourceReport, 1)))
}

func TestDetectCrop(t *testing.T) {
	report := `[Parsed_cropdetect_0 @ 0x1] x1:0 x2:1919 y1:132 y2:947 w:1920 h:816 x:0 y:132 pts:1 t:0.04 crop=1920:816:0:132
[Parsed_cropdetect_0 @ 0x1] x1:0 x2:1919 y1:140 y2:939 w:1920 h:800 x:0 y:140 pts:2 t:0.08 crop=1920:800:0:140
`
	fx := cropFake(report)
	tc := newToolchain(t, fx)

	det, err := tc.DetectCrop(context.Background(), "a.mkv", ffmpeg.CropOptions{Seconds: 30, Limit: 24})
	require.NoError(t, err)
	assert.Equal(t, domain.Resolution{Width: 1920, Height: 1080}, det.Source)
	assert.Equal(t, domain.Crop{Width: 1920, Height: 800, X: 0, Y: 140}, det.Crop, "last crop wins")
	assert.Equal(t, "1920:800:0:140", det.Suggested)

	calls := fx.CallsTo("ffmpeg")
	require.Len(t, calls, 2)
	assert.Equal(t, "30", testutils.ArgAfter(calls[1].Args, "-t"))
	assert.Equal(t, "cropdetect=limit=24:round=2:reset=0", testutils.ArgAfter(calls[1].Args, "-vf"))
}

func TestDetectCrop_Timeout(t *testing.T) {
	var timeout time.Duration
	fx := testutils.NewFakeExecutor().Handle("ffmpeg", byFlag(map[string]testutils.Handler{
		"-t": func(_ context.Context, cmd ports.Command) error {
			timeout = cmd.Timeout
			return nil
		},
	}, testutils.Respond("", sourceReport, 1)))

	det, err := newToolchain(t, fx).DetectCrop(context.Background(), "a.mkv", ffmpeg.CropOptions{})
	require.NoError(t, err)
	assert.Equal(t, 25*time.Second, timeout, "defaults to 20s plus 5s grace")
	assert.True(t, det.Crop.IsZero())
	assert.NotEmpty(t, det.Reason)
}

func TestDetectCrop_NoCrop(t *testing.T) {
	tests := []struct {
		name   string
		report string
	}{
		{"identity", "crop=1920:1080:0:0\n"},
		{"larger than source", "crop=2000:1080:0:0\n"},
		{"nothing reported", "frame= 100 fps=0.0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det, err := newToolchain(t, cropFake(tt.report)).DetectCrop(context.Background(), "a.mkv", ffmpeg.DefaultCropOptions())
			require.NoError(t, err)
			assert.True(t, det.Crop.IsZero())
			assert.NotEmpty(t, det.Reason)
		})
	}
}

func TestDetectCrop_NoSourceSize(t *testing.T) {
	fx := testutils.NewFakeExecutor().Handle("ffmpeg", testutils.Respond("", "a.mkv: Invalid data found", 1))
	_, err := newToolchain(t, fx).DetectCrop(context.Background(), "a.mkv", ffmpeg.DefaultCropOptions())
	assert.ErrorIs(t, err, domain.ErrNoResolution)
}

func TestCropDecision(t *testing.T) {
	fullHD := domain.Resolution{Width: 1920, Height: 1080}
	tests := []struct {
		name string
		crop domain.Crop
		src  domain.Resolution
		want bool
	}{
		{"letterbox", domain.Crop{Width: 1920, Height: 800, Y: 140}, fullHD, true},
		{"zero", domain.Crop{}, fullHD, false},
		{"same as source", domain.Crop{Width: 1920, Height: 1080}, fullHD, false},
		{"offset only", domain.Crop{Width: 1920, Height: 1080, X: 2}, fullHD, true},
		{"too aggressive", domain.Crop{Width: 1280, Height: 720}, fullHD, false},
		{"tiny source exempt", domain.Crop{Width: 100, Height: 100}, domain.Resolution{Width: 200, Height: 200}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := ffmpeg.CropDecision(tt.crop, tt.src)
			assert.Equal(t, tt.want, ok)
			if !ok {
				assert.NotEmpty(t, reason)
			}
		})
	}
}
