// Package ffmpeg wraps the ffmpeg and ffprobe command line tools: probing
// media, detecting NVIDIA support, cropdetect, subtitle and font extraction,
// building hevc_nvenc command lines and reading their progress output.
//
// Every process goes through a ports.Executor, so the package can be
// exercised without ffmpeg installed.
package ffmpeg
