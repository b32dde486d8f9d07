package shared

import "fmt"

var (
	// Invocation errors
	ErrUsage           = fmt.Errorf("usage error")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("no credentials found")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Session errors
	ErrConnectionFailed   = fmt.Errorf("connection failed")
	ErrAuthFailed         = fmt.Errorf("authentication failed")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("not found")

	// Per-track errors; each aborts only the current input line
	ErrMetadata         = fmt.Errorf("cannot get metadata")
	ErrTrackUnavailable = fmt.Errorf("could not find an available alternative")
	ErrNoEncoding       = fmt.Errorf("could not find an OGG_VORBIS format for the track")
	ErrKeyDenied        = fmt.Errorf("cannot get audio key")
	ErrStreamFailed     = fmt.Errorf("cannot read file stream")
	ErrDecryptFailed    = fmt.Errorf("cannot decrypt stream")
	ErrShortPayload     = fmt.Errorf("decrypted stream shorter than container preamble")
	ErrDispatchFailed   = fmt.Errorf("cannot write decrypted track")
	ErrHelperFailed     = fmt.Errorf("helper program failed")

	// Journal errors
	ErrJournal = fmt.Errorf("retrieval journal error")
)
