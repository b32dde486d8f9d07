// Package models defines the catalog entities handled by the retrieval pipeline and the persisted journal entity.
//
// The package contains two categories of types:
//
// 1. Catalog values: immutable data fetched from the session for a single input line
//   - [ID] : 128-bit catalog identifier for tracks, artists and albums (base-62 and hex codecs)
//   - [FileID] : opaque handle of one encoded file of a track
//   - [FileFormat] : encoding tier, with [VorbisPreference] as the selection order
//   - [Track], [Artist], [Album] : metadata, fetched fresh and never cached
//   - [AudioKey] : per-track, per-file decryption key
//
// 2. Persistent entities: database-backed models with lifecycle management
//   - [Retrieval] : one delivered track, recorded in the retrieval journal
//
// Persistent entities implement the [Model] interface providing ID generation, timestamps, validation, and soft delete support.
// The [Repository] interface defines the storage operations used by the journal.
package models
