// SPDX-License-Identifier: EPL-2.0

// Package formats ties the individual decoders together for corpus
// ingestion: a registry preloaded with WAV, MP3, Ogg Vorbis and AIFF,
// content sniffing for files that arrive without a usable name, and Open,
// which decodes an in-memory file from either a hint or its magic bytes.
package formats
