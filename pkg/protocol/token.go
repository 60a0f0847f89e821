package protocol

import (
	"encoding/json"
	"fmt"
)

// ProgressToken correlates progress notifications with the request
// that opted into them. The wire value is either a JSON integer or a
// string; two tokens are equal when their values are equal.
type ProgressToken struct {
	value interface{} // int64 or string
}

// NewIntToken creates an integer progress token.
func NewIntToken(v int64) ProgressToken {
	return ProgressToken{value: v}
}

// NewStringToken creates a string progress token.
func NewStringToken(v string) ProgressToken {
	return ProgressToken{value: v}
}

// Equal reports value equality between tokens.
func (t ProgressToken) Equal(other ProgressToken) bool {
	return t.value == other.value
}

// String renders the token for logging and map keys.
func (t ProgressToken) String() string {
	return fmt.Sprintf("%v", t.value)
}

// MarshalJSON emits the token as the integer or string it was
// received as.
func (t ProgressToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.value)
}

// UnmarshalJSON accepts a JSON integer or string. Anything else is
// rejected; a token with a surprise type would break correlation on
// the client side.
func (t *ProgressToken) UnmarshalJSON(data []byte) error {
	var asInt int64
	if err := json.Unmarshal(data, &asInt); err == nil {
		t.value = asInt
		return nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		t.value = asString
		return nil
	}
	return fmt.Errorf("progress token must be an integer or a string, got %s", string(data))
}
