// Package events fans transaction mutations out over RabbitMQ so every
// dashboard instance can drop its cached snapshots.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Op names the mutation that happened.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Change is published after every successful mutation.
type Change struct {
	Op            Op        `json:"op"`
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id"`
	At            time.Time `json:"at"`
}

func NewChange(op Op, userID, transactionID string) Change {
	return Change{Op: op, UserID: userID, TransactionID: transactionID, At: time.Now().UTC()}
}

// ChangeFromJSON decodes and checks a message body.
func ChangeFromJSON(data []byte) (Change, error) {
	var c Change
	if err := json.Unmarshal(data, &c); err != nil {
		return Change{}, err
	}
	switch c.Op {
	case OpCreated, OpUpdated, OpDeleted:
	default:
		return Change{}, fmt.Errorf("unknown op %q", c.Op)
	}
	return c, nil
}
