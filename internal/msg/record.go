package msg

import "github.com/ismaiel54/zigzag-trading-bridge/internal/zigzag"

// Record represents a consumed Kafka record
type Record struct {
	Topic     string
	Key       string
	Value     []byte
	Partition int32
	Offset    int64
	Timestamp int64
}

// Operation decodes the record value as an exchange envelope frame
func (r Record) Operation() (zigzag.Operation, error) {
	return zigzag.Decode(r.Value)
}
