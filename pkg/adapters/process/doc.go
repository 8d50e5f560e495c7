// Package process runs external programs for the launcher and the ffmpeg toolchain.
package process
