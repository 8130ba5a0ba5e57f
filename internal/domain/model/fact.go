package model

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedFact marks a fact that is missing required fields.
// Such facts are logged and dropped, never retried.
var ErrMalformedFact = errors.New("malformed fact")

func factKey(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(h[:16])
}

func unix(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
