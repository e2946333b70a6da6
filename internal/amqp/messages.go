package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// PolicyReloadMessage tells every running instance that the stored tax
// policy changed. It carries identification only; receivers reload from
// their own store.
type PolicyReloadMessage struct {
	Policy      string    `json:"policy"`
	FiscalYear  string    `json:"fiscal_year"`
	Fingerprint string    `json:"fingerprint"`
	Source      string    `json:"source"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewPolicyReloadMessage(policy, fiscalYear, fingerprint, source string) *PolicyReloadMessage {
	return &PolicyReloadMessage{
		Policy:      policy,
		FiscalYear:  fiscalYear,
		Fingerprint: fingerprint,
		Source:      source,
		Timestamp:   time.Now().UTC(),
	}
}

func (m *PolicyReloadMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PolicyReloadMessageFromJSON decodes a message; a policy name is required.
func PolicyReloadMessageFromJSON(data []byte) (*PolicyReloadMessage, error) {
	var msg PolicyReloadMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Policy == "" {
		return nil, fmt.Errorf("policy reload message without policy name")
	}
	return &msg, nil
}
