package relay

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying bridge failures. Callers match them with
// errors.Is through the *BridgeError wrapper.
var (
	ErrValidation      = errors.New("relay: invalid request")
	ErrRuntimeStart    = errors.New("relay: runtime start failed")
	ErrSessionCreation = errors.New("relay: session creation failed")
	ErrTimeout         = errors.New("relay: request timed out")
)

// BridgeError wraps any downstream failure of a bridge run with the
// stage it occurred in.
type BridgeError struct {
	Stage string // "validate", "start", "create-session", "send"
	Err   error
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("bridge %s: %v", e.Stage, e.Err)
}

func (e *BridgeError) Unwrap() error { return e.Err }

func bridgeErr(stage string, sentinel, cause error) *BridgeError {
	return &BridgeError{Stage: stage, Err: fmt.Errorf("%w: %w", sentinel, cause)}
}
