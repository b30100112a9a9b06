package internal

import (
	"encoding/json"
	"fmt"
)

// flashKey is the session key holding the one-shot flash payload.
const flashKey = "_flash_data"

// Flash stores data in the session for the next request. A later Flash
// overwrites an unread payload.
func (r *Request) Flash(data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode flash: %w", err)
	}
	return r.session.Set(flashKey, string(b))
}

// TakeFlash decodes the pending flash payload into dst and clears it.
// It reports false when there is nothing to read.
func (r *Request) TakeFlash(dst any) (bool, error) {
	raw, ok, err := r.session.Get(flashKey)
	if err != nil || !ok {
		return false, err
	}
	if err := r.session.Delete(flashKey); err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode flash: %w", err)
	}
	return true, nil
}
