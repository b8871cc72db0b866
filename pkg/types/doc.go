// Package types defines the error taxonomy shared by the mirror packages.
//
// Per-operation failures (out-of-bounds access, use after close) are typed so
// transport adapters can decide to swallow them, while construction-time
// failures (invalid configuration, allocation) propagate to the caller.
//
// Callers branch on categories with errors.Is:
//
//	if errors.Is(err, types.ErrOutOfBounds) {
//	    // reject the request without failing the transport
//	}
//
// This package has no dependencies beyond the standard library.
package types
