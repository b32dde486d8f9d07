// Package services defines the [Session] interface the retrieval pipeline talks to and implements it against a catalog proxy.
//
// # Session Interface
//
// A [Session] exposes metadata fetches, audio key requests and encrypted stream opening as
// asynchronous operations delivered through a [reactor.Loop]. Callers drive the loop with
// [reactor.Await]; nothing resolves while the loop is idle.
//
// # Catalog Proxy Implementation
//
// [ProxySession] communicates with an HTTP proxy fronting the catalog:
//   - GET /health : checked once by [Connect]
//   - GET /metadata/{track,artist,album}/{hex id} : JSON metadata
//   - GET /audio-key/{track hex}/{file hex} : {"key": "<hex>"}
//   - GET /storage/{file hex} : ranged reads of the encrypted file
//
// Requests carry the stored token as a bearer token through an [oauth2.StaticTokenSource].
// Metadata and key requests share a [rate.Limiter] to bound load on the proxy.
// Encrypted files are fetched in chunk_size ranges by a background goroutine that pushes each chunk
// into a [reactor.Stream].
//
// # Decryption
//
// [DecryptAudio] applies the catalog's AES-128-CTR transform with the fixed audio IV.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrConnectionFailed] : the proxy is unreachable or unhealthy
//   - [shared.ErrAuthFailed] : the token was rejected
//   - [shared.ErrNotFound] : unknown id
//   - [shared.ErrKeyDenied] : the proxy refused an audio key
//   - [shared.ErrStreamFailed] : a ranged read failed mid-stream
//   - [shared.ErrAPIRequest] : any other non-2xx status
package services
