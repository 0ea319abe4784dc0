package snapshot

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// now is replaceable in tests.
var now = func() time.Time { return time.Now().UTC() }

// newID generates a snapshot id: a millisecond timestamp for rough
// chronological ordering plus a random uuid fragment for uniqueness. Two
// creates in the same millisecond — or on the same instant across
// concurrent requests — still get distinct ids; the timestamp alone is not
// trusted for collision resistance.
func newID() string {
	return fmt.Sprintf("snap-%d-%s", now().UnixMilli(), uuid.NewString()[:8])
}
