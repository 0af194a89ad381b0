package feed

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor marks the position after the last post of a page. Keyset sorts
// carry the post's creation time and id; count sorts carry the next offset.
type Cursor struct {
	CreatedAt time.Time
	PostID    int64
	Offset    int
	Sort      Sort
}

type wireCursor struct {
	T int64  `json:"t,omitempty"`
	I int64  `json:"i,omitempty"`
	O int    `json:"o,omitempty"`
	S string `json:"s"`
}

// Encode returns the opaque base64url form handed to clients.
// Timestamps keep microsecond precision to match timestamptz.
func (c Cursor) Encode() string {
	w := wireCursor{I: c.PostID, O: c.Offset, S: c.Sort.String()}
	if !c.CreatedAt.IsZero() {
		w.T = c.CreatedAt.UnixMicro()
	}
	b, _ := json.Marshal(w)
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor parses raw and checks it was produced for sort.
func DecodeCursor(raw string, sort Sort) (Cursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var w wireCursor
	if err := json.Unmarshal(b, &w); err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if w.S != sort.String() {
		return Cursor{}, fmt.Errorf("%w: issued for sort %q", ErrInvalidCursor, w.S)
	}

	c := Cursor{PostID: w.I, Offset: w.O, Sort: sort}
	if sort.Keyset() {
		if w.T == 0 || w.I <= 0 {
			return Cursor{}, fmt.Errorf("%w: missing position", ErrInvalidCursor)
		}
		c.CreatedAt = time.UnixMicro(w.T).UTC()
	} else if w.O <= 0 {
		return Cursor{}, fmt.Errorf("%w: missing offset", ErrInvalidCursor)
	}
	return c, nil
}
