package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Sentinel errors for connectivity failures. The chat loop matches on
// these to produce friendly guidance instead of raw transport errors.
var (
	// ErrUnreachable means the model server refused or failed the
	// connection. Usually Ollama is not running.
	ErrUnreachable = errors.New("model server unreachable")

	// ErrTimeout means the request ran past its deadline. Usually the
	// model is still loading or the prompt is too large for the host.
	ErrTimeout = errors.New("model request timed out")
)

// classify wraps transport errors with the matching sentinel so callers
// can use errors.Is. Errors that are neither are returned wrapped as-is.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("%s: %w: %v", op, ErrUnreachable, err)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%s: %w: %v", op, ErrTimeout, err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%s: %w: %v", op, ErrUnreachable, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
