// Package attempt holds in-flight pipeline attempts between requests.
// Attempts are stored as JSON so a caller never shares state with the store.
package attempt

import (
	"encoding/json"
	"fmt"
	"time"

	"landverify/internal/verification/pipeline"
)

// DefaultTTL bounds how long an unfinished attempt is kept.
const DefaultTTL = 24 * time.Hour

func encode(a *pipeline.Attempt) ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode attempt: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*pipeline.Attempt, error) {
	var a pipeline.Attempt
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode attempt: %w", err)
	}
	return &a, nil
}
