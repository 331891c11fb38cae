package classifier

import (
	"encoding/json"
	"fmt"
)

func encodeModel(m *Model) (json.RawMessage, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode intent model: %w", err)
	}
	return data, nil
}

func decodeModel(raw json.RawMessage, m *Model) error {
	if err := json.Unmarshal(raw, m); err != nil {
		return fmt.Errorf("failed to decode intent model: %w", err)
	}
	return nil
}
