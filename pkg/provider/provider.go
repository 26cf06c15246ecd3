package provider

import (
	"context"

	"github.com/mosajjal/lognotifier/pkg/models"
	"github.com/mosajjal/lognotifier/pkg/schema"
)

// Outcome tags a decode Result
type Outcome int

const (
	// Accepted means the payload matched the expected shape and Batch is set
	Accepted Outcome = iota
	// Rejected means the payload decoded but did not match the expected shape
	Rejected
)

func (o Outcome) String() string {
	if o == Accepted {
		return "accepted"
	}
	return "rejected"
}

// Result is the outcome of decoding one invocation payload
type Result struct {
	Outcome Outcome
	Batch   *models.LogBatch
	Issues  []schema.Issue
}

// LogSource decodes the payload a log source delivers to the handler
type LogSource interface {
	// Name returns the source name
	Name() string

	// ParseBatch decodes and validates a compressed batch. An error means the
	// payload could not be decoded at all; shape mismatches are reported via
	// a Rejected Result instead.
	ParseBatch(ctx context.Context, data string) (Result, error)
}
