package roomstate

import (
	"encoding/json"
	"fmt"
)

// mustMarshal marshals v to JSON or panics — every payload broadcast by a
// Room is built from this package's own types, so a marshal failure here
// is a programming defect, not a runtime condition to recover from.
func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("roomstate: json marshal: %v", err))
	}
	return b
}
