/*
Package domain contains the core models shared by the launcher, the theme engine
and the encoding pipeline.

It is kept free of I/O. Adapters (process execution, stores, lockers) live in
pkg/adapters and are reached through the interfaces in pkg/ports.

# Key Entities

  - MediaInfo: what ffprobe reported about an input file.
  - HardwareInfo: the NVENC encoder, hardware decoders and filters ffmpeg offers.
  - EncodeSettings: the rate control and audio parameters of one encode.
  - FileResult: the outcome of one file in a batch.
  - Progress: a parsed ffmpeg status line.
*/
package domain
