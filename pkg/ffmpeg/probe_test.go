package ffmpeg_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/nvencoder/internal/testutils"
	"github.com/aretw0/nvencoder/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probeJSON = `{
  "streams": [
    {"index": 0, "codec_name": "H264", "codec_type": "video", "pix_fmt": "yuv420p10le", "width": 1921, "height": 817},
    {"index": 1, "codec_name": "aac", "codec_type": "audio"},
    {"index": 2, "codec_name": "ass", "codec_type": "subtitle", "tags": {"title": "Full", "language": "rus"}},
    {"index": 3, "codec_name": "ass", "codec_type": "subtitle", "tags": {"title": "НАДПИСИ [Signs]"}},
    {"index": 4, "codec_name": "ass", "codec_type": "subtitle", "tags": {"title": "надписи 2"}},
    {"index": 5, "codec_type": "attachment", "tags": {"filename": "Arial.ttf", "mimetype": "application/x-truetype-font"}},
    {"index": 6, "codec_type": "attachment", "tags": {"filename": "cover.jpg", "mimetype": "image/jpeg"}},
    {"index": 7, "codec_type": "attachment", "tags": {"mimetype": "font/otf"}}
  ],
  "format": {"duration": "1425.120000"}
}`

func TestProbe(t *testing.T) {
	fx := testutils.NewFakeExecutor().Handle("ffprobe", testutils.Respond(probeJSON, "", 0))
	tc := newToolchain(t, fx)

	info, err := tc.Probe(context.Background(), "/in/ep01.mkv")
	require.NoError(t, err)

	assert.Equal(t, "h264", info.VideoCodec)
	assert.Equal(t, "yuv420p10le", info.PixFmt)
	assert.True(t, info.Is10Bit())
	assert.Equal(t, 1920, info.Width)
	assert.Equal(t, 816, info.Height)
	assert.Equal(t, 1425*time.Second+120*time.Millisecond, info.Duration)

	require.Len(t, info.Subtitles, 3)
	assert.Equal(t, "rus", info.Subtitles[0].Language)
	assert.Equal(t, "und", info.Subtitles[1].Language)
	require.NotNil(t, info.Preferred)
	assert.Equal(t, 3, info.Preferred.Index, "first title containing the keyword wins")

	assert.Equal(t, []domain.FontAttachment{{Index: 5, Filename: "Arial.ttf"}}, info.Fonts)

	call := fx.CallsTo("ffprobe")[0]
	assert.Equal(t, "json", testutils.ArgAfter(call.Args, "-of"))
}

func TestProbe_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("no video stream", func(t *testing.T) {
		fx := testutils.NewFakeExecutor().Handle("ffprobe",
			testutils.Respond(`{"streams":[{"index":0,"codec_type":"audio"}],"format":{"duration":"10"}}`, "", 0))
		_, err := newToolchain(t, fx).Probe(ctx, "a.mkv")
		assert.ErrorIs(t, err, domain.ErrNoVideoStream)
	})

	t.Run("no duration keeps the rest", func(t *testing.T) {
		fx := testutils.NewFakeExecutor().Handle("ffprobe",
			testutils.Respond(`{"streams":[{"index":0,"codec_type":"video","codec_name":"hevc","width":640,"height":480}],"format":{"duration":"N/A"}}`, "", 0))
		info, err := newToolchain(t, fx).Probe(ctx, "a.mkv")
		assert.ErrorIs(t, err, domain.ErrNoDuration)
		assert.Equal(t, 640, info.Width)
	})

	t.Run("size falls back to csv probe", func(t *testing.T) {
		fx := testutils.NewFakeExecutor().Handle("ffprobe", byFlag(map[string]testutils.Handler{
			"csv=s=x:p=0": testutils.Respond("1279x719\n", "", 0),
		}, testutils.Respond(`{"streams":[{"index":0,"codec_type":"video","codec_name":"vp9"}],"format":{"duration":"3.5"}}`, "", 0)))

		info, err := newToolchain(t, fx).Probe(ctx, "a.webm")
		require.NoError(t, err)
		assert.Equal(t, 1278, info.Width)
		assert.Equal(t, 718, info.Height)
		assert.Equal(t, "unknown_pix_fmt", info.PixFmt)
		assert.Len(t, fx.CallsTo("ffprobe"), 2)
	})

	t.Run("fallback fails", func(t *testing.T) {
		fx := testutils.NewFakeExecutor().Handle("ffprobe", byFlag(map[string]testutils.Handler{
			"csv=s=x:p=0": testutils.Respond("garbage", "", 0),
		}, testutils.Respond(`{"streams":[{"index":0,"codec_type":"video"}],"format":{"duration":"3"}}`, "", 0)))

		_, err := newToolchain(t, fx).Probe(ctx, "a.webm")
		assert.ErrorIs(t, err, domain.ErrNoResolution)
	})

	t.Run("ffprobe exits non-zero", func(t *testing.T) {
		fx := testutils.NewFakeExecutor().Handle("ffprobe", testutils.Respond("", "Invalid data found", 1))
		_, err := newToolchain(t, fx).Probe(ctx, "a.mkv")
		assert.Equal(t, 1, domain.ExitCode(err))
	})

	t.Run("malformed json", func(t *testing.T) {
		fx := testutils.NewFakeExecutor().Handle("ffprobe", testutils.Respond("{", "", 0))
		_, err := newToolchain(t, fx).Probe(ctx, "a.mkv")
		assert.ErrorContains(t, err, "decode")
	})
}
