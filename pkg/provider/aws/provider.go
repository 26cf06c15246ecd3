package aws

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mosajjal/lognotifier/pkg/models"
	"github.com/mosajjal/lognotifier/pkg/provider"
	"github.com/mosajjal/lognotifier/pkg/schema"
)

// Provider implements the LogSource interface for CloudWatch Logs subscriptions
type Provider struct{}

// NewProvider creates a new CloudWatch Logs provider
func NewProvider() *Provider {
	return &Provider{}
}

var _ provider.LogSource = (*Provider)(nil)

// Name returns the provider name
func (p *Provider) Name() string {
	return "aws"
}

// logBatchShape is the shape a decoded subscription payload must have
var logBatchShape = []schema.Field{
	{Name: "logEvents", Kind: schema.Array, Items: &schema.Shape{Kind: schema.Object, Fields: []schema.Field{
		{Name: "id", Kind: schema.String},
		{Name: "timestamp", Kind: schema.Integer},
		{Name: "message", Kind: schema.String},
	}}},
	{Name: "logGroup", Kind: schema.String, NonEmpty: true},
	{Name: "logStream", Kind: schema.String, NonEmpty: true},
	{Name: "messageType", Kind: schema.String},
	{Name: "owner", Kind: schema.String, Optional: true},
	{Name: "subscriptionFilters", Kind: schema.Array, Optional: true, Items: &schema.Shape{Kind: schema.String}},
}

// ParseBatch decodes the base64 + gzip data of a CloudWatch Logs event and
// validates it against the subscription payload shape
func (p *Provider) ParseBatch(ctx context.Context, data string) (provider.Result, error) {
	decodedData, err := decodeCloudWatchData(data)
	if err != nil {
		return provider.Result{}, fmt.Errorf("failed to decode CloudWatch data: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(decodedData))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return provider.Result{}, fmt.Errorf("failed to parse CloudWatch data: %w", err)
	}

	if r := schema.Validate(doc, logBatchShape...); !r.OK() {
		return provider.Result{Outcome: provider.Rejected, Issues: r.Issues}, nil
	}

	var batch models.LogBatch
	if err := json.Unmarshal(decodedData, &batch); err != nil {
		// the shape was already checked, so this is not expected
		return provider.Result{}, fmt.Errorf("failed to unmarshal CloudWatch data: %w", err)
	}

	return provider.Result{Outcome: provider.Accepted, Batch: &batch}, nil
}

func decodeCloudWatchData(data string) ([]byte, error) {
	// Decode base64
	base64Decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	// Decompress gzip
	gz, err := gzip.NewReader(bytes.NewReader(base64Decoded))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	decompressed, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress gzip: %w", err)
	}

	return decompressed, nil
}
