// Package id generates notification record ids.
package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New returns a fresh ULID. The timestamp prefix keeps ids of one fan-out
// batch sortable by creation order without an extra sequence column.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
