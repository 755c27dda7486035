package amqp

import (
	"encoding/json"
	"time"
)

// TransactionRecordedMessage announces that a transaction row was persisted.
// It carries only identifiers; consumers fetch the full row from the database.
type TransactionRecordedMessage struct {
	TransactionID int64     `json:"transaksi_id"`
	UserID        int64     `json:"user_id"`
	Tipe          string    `json:"tipe"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionRecordedMessage(transactionID, userID int64, tipe string) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		TransactionID: transactionID,
		UserID:        userID,
		Tipe:          tipe,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionRecordedMessageFromJSON creates a message from JSON bytes
func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
