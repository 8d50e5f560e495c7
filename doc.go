/*
Package nvencoder is a batch video re-encoder for NVIDIA GPUs.

It drives the ffmpeg/ffprobe toolchain: every input file is probed, the
preferred subtitle track is burned in together with the fonts embedded in
the container, black bars are optionally detected and cropped, the picture
is optionally rescaled and the result is encoded with hevc_nvenc into an
MP4 next to the source.

# Layout

  - pkg/domain holds the data model (settings, probe results, file results,
    progress) and the lifecycle hooks observers attach to.
  - pkg/ffmpeg builds command lines and parses ffprobe and ffmpeg output.
  - pkg/encoder runs a batch: the Worker walks the files one by one and
    reports through domain.LifecycleHooks.
  - pkg/adapters provides the process executor, the result stores (memory,
    file, redis) and the HTTP status server.
  - pkg/launcher bootstraps the Python virtual environment of the desktop
    front end and starts it.
  - pkg/theme is the dark stylesheet of that front end, with a selector
    resolver usable from the command line.

# Usage

The command line tool lives in cmd/nvencoder:

	nvencoder detect
	nvencoder encode --bitrate 6 --crop ~/Videos/season1
	nvencoder history

Library users assemble a worker directly:

	tc, err := ffmpeg.Locate(appDir)
	if err != nil {
		log.Fatal(err)
	}
	hw, _, err := tc.DetectHardware(ctx)
	if err != nil {
		log.Fatal(err)
	}
	w := encoder.NewWorker(tc, hw, encoder.WithHooks(hooks))
	summary, err := w.Run(ctx, encoder.Request{
		Files:       files,
		OutputDir:   "/videos/out",
		BitrateMbps: 6,
		AutoCrop:    true,
	})
*/
package nvencoder
