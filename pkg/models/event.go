package models

import (
	"time"

	"github.com/aws/aws-lambda-go/events"
)

// LogBatchEnvelope is the raw invocation payload delivered by a CloudWatch Logs
// subscription: {"awslogs":{"data":"..."}} where data is base64 encoded gzip
// of a LogBatch
type LogBatchEnvelope = events.CloudwatchLogsEvent

// LogBatch is the decoded content of a LogBatchEnvelope
type LogBatch struct {
	MessageType         string     `json:"messageType"`
	Owner               string     `json:"owner,omitempty"`
	LogGroup            string     `json:"logGroup"`
	LogStream           string     `json:"logStream"`
	SubscriptionFilters []string   `json:"subscriptionFilters,omitempty"`
	LogEvents           []LogEvent `json:"logEvents"`
}

// LogEvent represents a single log line inside a batch
type LogEvent struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"` // Unix epoch milliseconds
	Message   string `json:"message"`
}

// Time returns the event timestamp as a time.Time in UTC
func (e LogEvent) Time() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}
