// Package ids generates identifiers for newly created catalog records.
package ids

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// PackagePrefix starts every generated package id.
const PackagePrefix = "pkg-"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// New returns a lexicographically sortable identifier.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewPackageID returns "pkg-" followed by a lowercase ULID.
func NewPackageID() string {
	return PackagePrefix + strings.ToLower(New())
}
