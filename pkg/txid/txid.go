// Package txid generates transaction identifiers that group the events of
// one saga execution.
package txid

import "github.com/oklog/ulid/v2"

// New returns a lexically sortable transaction ID.
func New() string {
	return ulid.Make().String()
}
