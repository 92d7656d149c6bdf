package narrative

// kindError is a sentinel error that also names its metric label.
type kindError string

func (e kindError) Error() string  { return "narrative: " + string(e) }
func (e kindError) Reason() string { return string(e) }

var (
	// ErrUnavailable means the collaborator is disabled, unconfigured or failed at the transport level.
	ErrUnavailable error = kindError("unavailable")
	// ErrNoPayload means the output contained no JSON-looking fragment.
	ErrNoPayload error = kindError("no_payload")
	// ErrInvalidPayload means a fragment was found but failed decoding or validation.
	ErrInvalidPayload error = kindError("invalid_payload")
)
