package mcp

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// RequestID identifies a single outbound or inbound JSON-RPC request. The
// wire form is either a JSON number or a JSON string; ReservedInitializeID
// is the one value that carries protocol meaning of its own (§3, §4.F).
type RequestID struct {
	isString bool
	i        int64
	s        string
}

// ReservedInitializeID is the id the client must use for the initialize
// request, and the only request permitted to use it (§4.F "reserved id").
var ReservedInitializeID = IntID(1)

// IntID builds an integer-valued RequestID.
func IntID(v int64) RequestID {
	return RequestID{i: v}
}

// StringID builds a string-valued RequestID.
func StringID(v string) RequestID {
	return RequestID{isString: true, s: v}
}

// NewStringID generates a fresh random string RequestID, used for requests
// that do not need the reserved integer sequence (the public surface uses
// these for everything except initialize).
func NewStringID() RequestID {
	return StringID(uuid.NewString())
}

// IsZero reports whether the id was never set (default RequestID value).
func (id RequestID) IsZero() bool {
	return !id.isString && id.i == 0 && id.s == ""
}

// String renders the id for logs and map keys.
func (id RequestID) String() string {
	if id.isString {
		return id.s
	}
	return strconv.FormatInt(id.i, 10)
}

// Equal reports whether two ids denote the same JSON-RPC request id.
// Equality is total and does not coerce across the integer/string variants.
func (id RequestID) Equal(other RequestID) bool {
	return id.isString == other.isString && id.i == other.i && id.s == other.s
}

func (id RequestID) MarshalJSON() ([]byte, error) {
	if id.isString {
		return json.Marshal(id.s)
	}
	return json.Marshal(id.i)
}

func (id *RequestID) UnmarshalJSON(data []byte) error {
	var asInt int64
	if err := json.Unmarshal(data, &asInt); err == nil {
		*id = RequestID{i: asInt}
		return nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*id = RequestID{isString: true, s: asString}
		return nil
	}
	return fmt.Errorf("%w: request id must be a JSON number or string", ErrInvalidRequest)
}
