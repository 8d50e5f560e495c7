/*
Package encoder runs batches of files through the hevc_nvenc pipeline.

A Worker takes each input in turn: probe, optional black bar crop, font and
subtitle extraction, target size, then the ffmpeg encode with progress
parsing. Every file ends in exactly one domain.FileResult, which is recorded
in the configured ports.ResultStore and reported through the lifecycle hooks.
A canceled context stops the running ffmpeg and the rest of the batch.
*/
package encoder
