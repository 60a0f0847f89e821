// Package pagination implements the opaque-cursor paging used by the
// list methods (tools/list, resources/list, prompts/list,
// resources/templates/list). Cursors encode a plain offset; they are
// opaque on the wire but cheap to mint and validate server-side.
package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
)

const (
	// DefaultLimit is the page size applied when no limit is chosen.
	DefaultLimit = 50

	// MaxLimit caps page sizes.
	MaxLimit = 200
)

// ErrInvalidCursor is returned when a cursor cannot be decoded.
var ErrInvalidCursor = errors.New("invalid pagination cursor")

// EncodeCursor encodes an offset as an opaque cursor.
func EncodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// DecodeCursor decodes a cursor back into an offset. The empty cursor
// means the first page.
func DecodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCursor, cursor)
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCursor, cursor)
	}
	return offset, nil
}

// Page selects the window [offset, offset+limit) of a collection of
// length total and returns the bounds plus the cursor for the next
// page ("" when the collection is exhausted).
func Page(total, offset, limit int) (start, end int, nextCursor string) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset > total {
		offset = total
	}
	start = offset
	end = offset + limit
	if end >= total {
		end = total
		return start, end, ""
	}
	return start, end, EncodeCursor(end)
}
