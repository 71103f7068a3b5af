package scan

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformedIndex means messages/index.json exists but is not a flat
// object of string to string. Callers treat it as an empty index.
var ErrMalformedIndex = errors.New("malformed channel index")

// ParseIndex decodes the channel index document: channel id -> display name.
// Null values are kept as empty names so the id still counts as indexed.
func ParseIndex(r io.Reader) (map[string]string, error) {
	var raw map[string]*string
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedIndex, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: document is null", ErrMalformedIndex)
	}

	index := make(map[string]string, len(raw))
	for id, name := range raw {
		if name == nil {
			index[id] = ""
			continue
		}
		index[id] = *name
	}
	return index, nil
}
