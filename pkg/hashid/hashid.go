// Package hashid provides the digest and identifier primitives used by the
// chain model.
//
// Both primitives sit behind small interfaces so tests can substitute
// deterministic or failing implementations:
//
//	d := hashid.SHA256{}
//	h, err := d.Digest(ctx, "1700000000000000000" + prev + "payload")
//
//	ids := hashid.UUIDs{}
//	id := ids.NewID()
package hashid

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/google/uuid"
	sha256 "github.com/minio/sha256-simd"
)

// Digester computes a content digest of text.
// Implementations must be deterministic and collision-resistant.
type Digester interface {
	Digest(ctx context.Context, text string) (string, error)
}

// IDSource produces globally unique identifiers.
type IDSource interface {
	NewID() string
}

// SHA256 is the default [Digester]: lowercase hex SHA-256.
type SHA256 struct{}

// Digest hashes text. It fails only when ctx is already done.
func (SHA256) Digest(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:]), nil
}

// UUIDs is the default [IDSource], backed by random (v4) UUIDs.
type UUIDs struct{}

// NewID returns a new random UUID string.
func (UUIDs) NewID() string { return uuid.NewString() }

// Sequential is an [IDSource] that yields prefix-1, prefix-2, ...
// It is safe for concurrent use.
type Sequential struct {
	Prefix string

	mu sync.Mutex
	n  int
}

// NewID returns the next identifier in the sequence.
func (s *Sequential) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	prefix := s.Prefix
	if prefix == "" {
		prefix = "id"
	}
	return fmt.Sprintf("%s-%d", prefix, s.n)
}

// DigestFunc adapts a function to the [Digester] interface.
type DigestFunc func(ctx context.Context, text string) (string, error)

// Digest calls f.
func (f DigestFunc) Digest(ctx context.Context, text string) (string, error) { return f(ctx, text) }

// Failing returns a Digester that always fails with err.
func Failing(err error) Digester {
	return DigestFunc(func(context.Context, string) (string, error) { return "", err })
}

var (
	_ Digester = SHA256{}
	_ Digester = DigestFunc(nil)
	_ IDSource = UUIDs{}
	_ IDSource = (*Sequential)(nil)
)
