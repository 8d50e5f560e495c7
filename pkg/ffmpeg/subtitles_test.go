package ffmpeg_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/nvencoder/internal/testutils"
	"github.com/aretw0/nvencoder/pkg/domain"
	"github.com/aretw0/nvencoder/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTo returns a handler that writes content to the file named by the
// argument following flag, or by the last argument when flag is empty.
func writeTo(flag, content string, code int) testutils.Handler {
	return func(ctx context.Context, cmd ports.Command) error {
		target := cmd.Args[len(cmd.Args)-1]
		if flag != "" {
			target = testutils.ArgAfter(cmd.Args, flag)
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			return err
		}
		return testutils.Respond("", "", code)(ctx, cmd)
	}
}

func TestExtractSubtitle(t *testing.T) {
	dir := testutils.TempDir(t)
	fx := testutils.NewFakeExecutor().
		Handle("ffprobe", testutils.Respond("2\n3\n4\n", "", 0)).
		Handle("ffmpeg", writeTo("", "[Script Info]", 0))

	path, err := newToolchain(t, fx).ExtractSubtitle(context.Background(), "a.mkv",
		domain.SubtitleTrack{Index: 3, Title: "Надписи: [Signs]"}, dir)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "temp_Надписи Signs_"))
	assert.True(t, strings.HasSuffix(path, ".ass"))

	call := fx.CallsTo("ffmpeg")[0]
	assert.Equal(t, "0:s:1", testutils.ArgAfter(call.Args, "-map"))
	assert.Equal(t, "ass", testutils.ArgAfter(call.Args, "-c:s"))
}

func TestExtractSubtitle_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown stream", func(t *testing.T) {
		fx := testutils.NewFakeExecutor().Handle("ffprobe", testutils.Respond("2\n4\n", "", 0))
		_, err := newToolchain(t, fx).ExtractSubtitle(ctx, "a.mkv", domain.SubtitleTrack{Index: 3}, testutils.TempDir(t))
		assert.ErrorIs(t, err, domain.ErrSubtitleTrackNotFound)
		assert.Empty(t, fx.CallsTo("ffmpeg"))
	})

	t.Run("empty output", func(t *testing.T) {
		fx := testutils.NewFakeExecutor().
			Handle("ffprobe", testutils.Respond("3\n", "", 0)).
			Handle("ffmpeg", writeTo("", "", 0))
		_, err := newToolchain(t, fx).ExtractSubtitle(ctx, "a.mkv", domain.SubtitleTrack{Index: 3}, testutils.TempDir(t))
		assert.ErrorIs(t, err, domain.ErrEmptyOutput)
	})

	t.Run("ffmpeg fails", func(t *testing.T) {
		fx := testutils.NewFakeExecutor().
			Handle("ffprobe", testutils.Respond("3\n", "", 0)).
			Handle("ffmpeg", testutils.Respond("", "Invalid argument", 1))
		_, err := newToolchain(t, fx).ExtractSubtitle(ctx, "a.mkv", domain.SubtitleTrack{Index: 3}, testutils.TempDir(t))
		assert.Equal(t, 1, domain.ExitCode(err))
	})
}

func TestExtractFonts(t *testing.T) {
	dir := filepath.Join(testutils.TempDir(t), "extracted_fonts")
	fx := testutils.NewFakeExecutor().Handle("ffmpeg", func(ctx context.Context, cmd ports.Command) error {
		out := cmd.Args[5]
		content := "font"
		if strings.HasSuffix(out, "Broken.ttf") {
			content = ""
		}
		require.NoError(t, os.WriteFile(out, []byte(content), 0o644))
		// ffmpeg complains about the missing output file after dumping.
		return testutils.Respond("", "At least one output file must be specified", 1)(ctx, cmd)
	})

	n, err := newToolchain(t, fx).ExtractFonts(context.Background(), "a.mkv", []domain.FontAttachment{
		{Index: 5, Filename: "fonts/Arial.ttf"},
		{Index: 6, Filename: "Broken.ttf"},
		{Index: 7},
	}, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.FileExists(t, filepath.Join(dir, "Arial.ttf"))
	assert.NoFileExists(t, filepath.Join(dir, "Broken.ttf"), "empty dumps are removed")

	calls := fx.CallsTo("ffmpeg")
	require.Len(t, calls, 2)
	assert.Equal(t, "-dump_attachment:5", calls[0].Args[4])
}

func TestExtractFonts_None(t *testing.T) {
	fx := testutils.NewFakeExecutor()
	n, err := newToolchain(t, fx).ExtractFonts(context.Background(), "a.mkv", nil, testutils.TempDir(t))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, fx.Calls())
}
