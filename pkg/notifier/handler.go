// Package notifier relays CloudWatch Logs subscription batches to a chat webhook.
package notifier

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/mosajjal/lognotifier/pkg/config"
	"github.com/mosajjal/lognotifier/pkg/datetime"
	"github.com/mosajjal/lognotifier/pkg/format"
	"github.com/mosajjal/lognotifier/pkg/models"
	"github.com/mosajjal/lognotifier/pkg/provider"
	"github.com/mosajjal/lognotifier/pkg/provider/aws"
	"github.com/mosajjal/lognotifier/pkg/slack"
)

// Poster delivers one message to the webhook
type Poster interface {
	Post(ctx context.Context, msg *slack.Message) error
}

// Handler processes one batch per invocation. It holds no mutable state, so a
// single Handler may serve concurrent invocations.
type Handler struct {
	source    provider.LogSource
	poster    Poster
	formatter *datetime.Formatter
	link      slack.ConsoleLink
	log       logrus.FieldLogger
}

// NewHandler creates a handler from the resolved configuration
func NewHandler(cfg *config.Config, poster Poster, log logrus.FieldLogger) *Handler {
	return &Handler{
		source:    aws.NewProvider(),
		poster:    poster,
		formatter: cfg.DateTime,
		link:      cfg.Link,
		log:       log,
	}
}

// Handle decodes the batch and posts one message per log event, in order,
// waiting for each post before starting the next. Delivery failures are
// logged and skipped. Only an undecodable payload returns an error.
func (h *Handler) Handle(ctx context.Context, envelope models.LogBatchEnvelope) error {
	log := h.log.WithField("source", h.source.Name())
	log.WithField("event", envelope).Debug("Received event")

	result, err := h.source.ParseBatch(ctx, envelope.AWSLogs.Data)
	if err != nil {
		return err
	}
	if result.Outcome == provider.Rejected {
		issues := make([]string, len(result.Issues))
		for i, issue := range result.Issues {
			issues[i] = issue.String()
		}
		log.WithField("issues", issues).Warn("Unrecognizable message received, ignoring")
		return nil
	}

	batch := result.Batch
	logger := log.WithFields(logrus.Fields{
		"logGroup":  batch.LogGroup,
		"logStream": batch.LogStream,
	})

	failed := 0
	for _, event := range batch.LogEvents {
		if err := h.poster.Post(ctx, h.Message(batch, event)); err != nil {
			failed++
			fields := logrus.Fields{"eventId": event.ID}
			var derr *slack.DeliveryError
			if errors.As(err, &derr) {
				fields["status"] = derr.StatusCode
				fields["body"] = derr.Body
			}
			logger.WithFields(fields).WithError(err).Error("Posting message failed")
		}
	}

	logger.WithFields(logrus.Fields{
		"events": len(batch.LogEvents),
		"failed": failed,
	}).Info("Processed log events")
	return nil
}

// Message builds the chat message for one log event of batch
func (h *Handler) Message(batch *models.LogBatch, event models.LogEvent) *slack.Message {
	return slack.LogMessage(
		batch.LogGroup,
		format.PrettyEmbeddedJSON(event.Message),
		h.formatter.Format(event.Time()),
		h.link.URL(batch.LogGroup, batch.LogStream),
	)
}
