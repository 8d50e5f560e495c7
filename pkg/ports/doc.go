/*
Package ports defines the driven ports (interfaces) of nvencoder.

These interfaces decouple the launcher and the encoding pipeline from the
operating system and from storage backends, so both can be exercised with
fakes in tests.

# Key Interfaces

  - Executor: runs external processes (python, pip, ffmpeg, ffprobe, nvidia-smi).
  - ResultStore: persists per-file encoding results.
  - DistributedLocker: guards an output directory against concurrent batches.
*/
package ports
