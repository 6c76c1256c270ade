package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// LoanOp says what happened to a loan.
type LoanOp string

const (
	OpCreate LoanOp = "create"
	OpUpdate LoanOp = "update"
	OpDelete LoanOp = "delete"
	// OpRefresh asks the worker to recompute plans without a ledger change.
	OpRefresh LoanOp = "refresh"
)

// LoanChangedMessage is a lightweight notification that the ledger changed.
// The worker reloads the ledger itself; the message carries no loan data.
type LoanChangedMessage struct {
	ID        int64     `json:"id"`
	Op        LoanOp    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLoanChangedMessage(id int64, op LoanOp) *LoanChangedMessage {
	return &LoanChangedMessage{
		ID:        id,
		Op:        op,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LoanChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LoanChangedMessageFromJSON decodes a message and rejects unknown ops.
func LoanChangedMessageFromJSON(data []byte) (*LoanChangedMessage, error) {
	var msg LoanChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Op {
	case OpCreate, OpUpdate, OpDelete, OpRefresh:
	default:
		return nil, fmt.Errorf("unknown op %q", msg.Op)
	}
	return &msg, nil
}
