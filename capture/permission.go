// SPDX-License-Identifier: EPL-2.0

package capture

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// PermissionState is the capture permission as far as it can be known.
type PermissionState int

const (
	PermissionUnknown PermissionState = iota
	PermissionGranted
	PermissionDenied
	PermissionPrompt
)

func (s PermissionState) String() string {
	switch s {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	case PermissionPrompt:
		return "prompt"
	default:
		return "unknown"
	}
}

// PermissionQuerier asks the platform for the capture permission. It
// returns ErrQueryUnsupported when the platform cannot tell.
type PermissionQuerier interface {
	QueryPermission(ctx context.Context) (PermissionState, error)
}

// PermissionGate checks the capture permission before a device is requested.
type PermissionGate struct {
	querier PermissionQuerier
	log     *zap.Logger
}

// NewPermissionGate creates a gate. A nil querier means the permission is
// never known in advance.
func NewPermissionGate(q PermissionQuerier, log *zap.Logger) *PermissionGate {
	if log == nil {
		log = zap.NewNop()
	}
	return &PermissionGate{querier: q, log: log}
}

// Query is best effort. Without a way to ask it assumes a request is
// needed and reports PermissionPrompt.
func (g *PermissionGate) Query(ctx context.Context) PermissionState {
	if g == nil || g.querier == nil {
		return PermissionPrompt
	}

	state, err := g.querier.QueryPermission(ctx)
	switch {
	case errors.Is(err, ErrQueryUnsupported):
		return PermissionPrompt
	case err != nil:
		g.log.Debug("permission query failed", zap.Error(err))
		return PermissionUnknown
	}
	return state
}

// EnsurePermission fails with *PermissionError when the permission is known
// to be denied. Any other state lets the device request go ahead, where the
// platform may still prompt or refuse.
func (g *PermissionGate) EnsurePermission(ctx context.Context) error {
	if g.Query(ctx) == PermissionDenied {
		return &PermissionError{Err: ErrPermissionDenied}
	}
	return nil
}
