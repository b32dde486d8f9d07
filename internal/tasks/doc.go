// Package tasks retrieves catalog tracks named by lines of text, one track at a time.
//
// # Pipeline
//
// [Pipeline.Run] reads references with [References] and runs [Pipeline.Process] for each:
//
//  1. [Resolver.Resolve] : fetch the track, walking its alternatives when it is unavailable
//  2. [ArtistNames] : fetch artist names in order
//  3. [SelectFile] : pick OGG_VORBIS_320, then 160, then 96
//  4. [Engine.FetchDecrypt] : audio key, encrypted stream, decrypt, strip [PreambleSize] bytes
//  5. [Dispatcher.Dispatch] : write a file ([FileDispatcher]) or pipe into a helper ([HelperDispatcher])
//  6. [Journal.Record] : optional retrieval history
//
// Any error aborts only the current line. The [Summary] returned by Run counts delivered, skipped and failed lines.
//
// # Bridging
//
// Session results only arrive while the session's loop is turned. [Engine] reads the stream on one errgroup
// worker and turns the loop on the calling goroutine until the worker flags completion.
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate]. Updates use select with default to prevent blocking.
package tasks
