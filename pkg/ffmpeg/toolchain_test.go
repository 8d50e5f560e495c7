package ffmpeg_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/nvencoder/internal/testutils"
	"github.com/aretw0/nvencoder/pkg/domain"
	"github.com/aretw0/nvencoder/pkg/ffmpeg"
	"github.com/aretw0/nvencoder/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newToolchain(t *testing.T, fx *testutils.FakeExecutor, opts ...ffmpeg.Option) *ffmpeg.Toolchain {
	t.Helper()
	opts = append([]ffmpeg.Option{
		ffmpeg.WithExecutor(fx),
		ffmpeg.WithPaths("/opt/ff/ffmpeg", "/opt/ff/ffprobe"),
		ffmpeg.WithGOOS("linux"),
	}, opts...)
	tc, err := ffmpeg.Locate(testutils.TempDir(t), opts...)
	require.NoError(t, err)
	return tc
}

func TestLocate(t *testing.T) {
	t.Run("PATH first", func(t *testing.T) {
		fx := testutils.NewFakeExecutor().
			Install("ffmpeg", "/usr/bin/ffmpeg").
			Install("ffprobe", "/usr/bin/ffprobe")

		tc, err := ffmpeg.Locate(testutils.TempDir(t), ffmpeg.WithExecutor(fx))
		require.NoError(t, err)
		assert.Equal(t, "/usr/bin/ffmpeg", tc.FFmpeg)
		assert.Equal(t, "/usr/bin/ffprobe", tc.FFprobe)
		assert.Equal(t, ffmpeg.DefaultSubtitleKeyword, tc.SubtitleKeyword())
	})

	t.Run("next to the application", func(t *testing.T) {
		dir := testutils.TempDir(t)
		testutils.WriteFile(t, dir, "ffmpeg.exe", "bin")
		testutils.WriteFile(t, dir, "ffprobe.exe", "bin")

		tc, err := ffmpeg.Locate(dir, ffmpeg.WithExecutor(testutils.NewFakeExecutor()), ffmpeg.WithGOOS("windows"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "ffmpeg.exe"), tc.FFmpeg)
		assert.Equal(t, filepath.Join(dir, "ffprobe.exe"), tc.FFprobe)
	})

	t.Run("missing", func(t *testing.T) {
		dir := testutils.TempDir(t)
		testutils.WriteFile(t, dir, "ffmpeg", "bin")

		_, err := ffmpeg.Locate(dir, ffmpeg.WithExecutor(testutils.NewFakeExecutor()), ffmpeg.WithGOOS("linux"))
		assert.ErrorIs(t, err, domain.ErrToolNotFound)
		assert.Contains(t, err.Error(), "ffprobe")
	})
}

func TestCheckExecutable(t *testing.T) {
	dir := testutils.TempDir(t)
	file := testutils.WriteFile(t, dir, "ffmpeg", "bin")

	assert.NoError(t, ffmpeg.CheckExecutable("ffmpeg", file))
	assert.ErrorIs(t, ffmpeg.CheckExecutable("ffmpeg", dir), domain.ErrToolNotFound)
	assert.ErrorIs(t, ffmpeg.CheckExecutable("ffmpeg", filepath.Join(dir, "nope")), domain.ErrToolNotFound)
}

// byFlag routes ffmpeg calls to handlers keyed by an argument they contain.
func byFlag(routes map[string]testutils.Handler, fallback testutils.Handler) testutils.Handler {
	return func(ctx context.Context, cmd ports.Command) error {
		for _, a := range cmd.Args {
			if h, ok := routes[a]; ok {
				return h(ctx, cmd)
			}
		}
		return fallback(ctx, cmd)
	}
}
