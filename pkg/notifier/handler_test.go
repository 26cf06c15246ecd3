package notifier

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosajjal/lognotifier/pkg/config"
	"github.com/mosajjal/lognotifier/pkg/models"
	"github.com/mosajjal/lognotifier/pkg/slack"
)

const testOptions = `{"locale":"en-US","calendar":"gregory","numberingSystem":"latn","timeZone":"UTC",` +
	`"year":"numeric","month":"numeric","day":"numeric","hour":"numeric","minute":"numeric","second":"numeric"}`

// postedText and postedMessage are the wire form of a webhook request
type postedText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type postedMessage struct {
	Blocks []struct {
		Type     string       `json:"type"`
		Text     *postedText  `json:"text"`
		Elements []postedText `json:"elements"`
	} `json:"blocks"`
}

// webhook records every request and answers with the next status in statuses
// (200 once they run out)
type webhook struct {
	mu       sync.Mutex
	bodies   []postedMessage
	statuses []int
}

func (w *webhook) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	w.mu.Lock()
	defer w.mu.Unlock()

	raw, _ := io.ReadAll(r.Body)
	var msg postedMessage
	json.Unmarshal(raw, &msg)
	w.bodies = append(w.bodies, msg)

	status := http.StatusOK
	if len(w.statuses) > 0 {
		status, w.statuses = w.statuses[0], w.statuses[1:]
	}
	rw.WriteHeader(status)
	if status != http.StatusOK {
		rw.Write([]byte("no_service"))
	}
}

func newHandler(t *testing.T, url string) (*Handler, *test.Hook) {
	t.Helper()
	cfg, err := config.Load(context.Background(), config.Args{
		WebhookURL:     url,
		DateTimeFormat: testOptions,
		Region:         "ap-northeast-1",
		LogLevel:       "info",
	}, nil)
	require.NoError(t, err)

	client, err := slack.NewClient(cfg.Webhook)
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	return NewHandler(cfg, client, logger), hook
}

func envelope(t *testing.T, batch interface{}) models.LogBatchEnvelope {
	t.Helper()
	raw, err := json.Marshal(batch)
	require.NoError(t, err)
	return envelopeRaw(t, raw)
}

func envelopeRaw(t *testing.T, raw []byte) models.LogBatchEnvelope {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write(raw)
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	return events.CloudwatchLogsEvent{AWSLogs: events.CloudwatchLogsRawData{
		Data: base64.StdEncoding.EncodeToString(buf.Bytes()),
	}}
}

func batchOf(messages ...string) models.LogBatch {
	batch := models.LogBatch{
		MessageType: "DATA_MESSAGE",
		LogGroup:    "/app/svc",
		LogStream:   "s1",
		LogEvents:   []models.LogEvent{},
	}
	for i, m := range messages {
		batch.LogEvents = append(batch.LogEvents, models.LogEvent{
			ID:        string(rune('a' + i)),
			Timestamp: 1700000000000 + int64(i)*1000,
			Message:   m,
		})
	}
	return batch
}

func sectionText(m postedMessage) string {
	return m.Blocks[0].Text.Text
}

func TestHandler_Handle_SingleEventBatch(t *testing.T) {
	wh := &webhook{}
	srv := httptest.NewServer(wh)
	defer srv.Close()

	h, _ := newHandler(t, srv.URL)
	err := h.Handle(context.Background(), envelope(t, map[string]interface{}{
		"logGroup":    "/app/svc",
		"logStream":   "s1",
		"messageType": "DATA_MESSAGE",
		"logEvents": []map[string]interface{}{
			{"id": "1", "timestamp": 1700000000000, "message": `Error occurred {"code":500,"msg":"boom"}`},
		},
	}))
	require.NoError(t, err)

	require.Len(t, wh.bodies, 1)
	msg := wh.bodies[0]
	require.Len(t, msg.Blocks, 2)

	assert.Equal(t, "section", msg.Blocks[0].Type)
	assert.Equal(t, "/app/svc\n```Error occurred {\n  \"code\": 500,\n  \"msg\": \"boom\"\n}\n```", sectionText(msg))

	ctxBlock := msg.Blocks[1]
	assert.Equal(t, "context", ctxBlock.Type)
	require.Len(t, ctxBlock.Elements, 2)
	assert.Equal(t, "plain_text", ctxBlock.Elements[0].Type)
	assert.Equal(t, "11/14/2023, 10:13:20 PM", ctxBlock.Elements[0].Text)
	assert.Equal(t, "mrkdwn", ctxBlock.Elements[1].Type)
	assert.Equal(t, "<https://ap-northeast-1.console.aws.amazon.com/cloudwatch/home?region=ap-northeast-1"+
		"#logsV2:log-groups/log-group/%2Fapp%2Fsvc/log-events/s1|See in CloudWatch>", ctxBlock.Elements[1].Text)
}

func TestHandler_Handle_InOrder(t *testing.T) {
	wh := &webhook{}
	srv := httptest.NewServer(wh)
	defer srv.Close()

	h, _ := newHandler(t, srv.URL)
	require.NoError(t, h.Handle(context.Background(), envelope(t, batchOf("one", "two", "three", "four"))))

	require.Len(t, wh.bodies, 4)
	for i, want := range []string{"one", "two", "three", "four"} {
		assert.Equal(t, "/app/svc\n```"+want+"\n```", sectionText(wh.bodies[i]))
	}
	assert.Equal(t, "11/14/2023, 10:13:23 PM", wh.bodies[3].Blocks[1].Elements[0].Text)
}

func TestHandler_Handle_EmptyBatch(t *testing.T) {
	wh := &webhook{}
	srv := httptest.NewServer(wh)
	defer srv.Close()

	h, _ := newHandler(t, srv.URL)
	require.NoError(t, h.Handle(context.Background(), envelope(t, batchOf())))
	assert.Empty(t, wh.bodies)
}

func TestHandler_Handle_FailureDoesNotStopBatch(t *testing.T) {
	wh := &webhook{statuses: []int{http.StatusOK, http.StatusInternalServerError}}
	srv := httptest.NewServer(wh)
	defer srv.Close()

	h, hook := newHandler(t, srv.URL)
	require.NoError(t, h.Handle(context.Background(), envelope(t, batchOf("one", "two", "three", "four"))))

	require.Len(t, wh.bodies, 4)
	assert.Equal(t, "/app/svc\n```four\n```", sectionText(wh.bodies[3]))

	var failures []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			failures = append(failures, e)
		}
	}
	require.Len(t, failures, 1)
	assert.Equal(t, "Posting message failed", failures[0].Message)
	assert.Equal(t, http.StatusInternalServerError, failures[0].Data["status"])
	assert.Equal(t, "no_service", failures[0].Data["body"])
	assert.Equal(t, "b", failures[0].Data["eventId"])

	last := hook.LastEntry()
	assert.Equal(t, "Processed log events", last.Message)
	assert.Equal(t, 4, last.Data["events"])
	assert.Equal(t, 1, last.Data["failed"])
	assert.Equal(t, "aws", last.Data["source"])
}

func TestHandler_Handle_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	h, hook := newHandler(t, url)
	require.NoError(t, h.Handle(context.Background(), envelope(t, batchOf("one", "two"))))

	errorsLogged := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			errorsLogged++
			assert.NotContains(t, e.Data, "status")
			assert.Contains(t, e.Data, logrus.ErrorKey)
		}
	}
	assert.Equal(t, 2, errorsLogged)
}

func TestHandler_Handle_InvalidShape(t *testing.T) {
	wh := &webhook{}
	srv := httptest.NewServer(wh)
	defer srv.Close()

	h, hook := newHandler(t, srv.URL)
	err := h.Handle(context.Background(), envelopeRaw(t, []byte(
		`{"logGroup":"/app/svc","logStream":"s1","messageType":"DATA_MESSAGE","logEvents":[{"id":1,"timestamp":"x","message":"m"}]}`,
	)))
	require.NoError(t, err)

	assert.Empty(t, wh.bodies)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "aws", hook.LastEntry().Data["source"])
	assert.Contains(t, hook.LastEntry().Data["issues"], "$.logEvents[0].id: expected string, got number")
}

func TestHandler_Handle_Undecodable(t *testing.T) {
	wh := &webhook{}
	srv := httptest.NewServer(wh)
	defer srv.Close()

	h, _ := newHandler(t, srv.URL)

	bad := events.CloudwatchLogsEvent{AWSLogs: events.CloudwatchLogsRawData{Data: "not base64!"}}
	assert.Error(t, h.Handle(context.Background(), bad))
	assert.Error(t, h.Handle(context.Background(), envelopeRaw(t, []byte("{not json"))))
	assert.Empty(t, wh.bodies)
}

func TestHandler_Message_MalformedJSONUnchanged(t *testing.T) {
	h, _ := newHandler(t, "https://hooks.slack.com/test")
	batch := batchOf(`bad {"a":}`)

	raw, err := json.Marshal(h.Message(&batch, batch.LogEvents[0]))
	require.NoError(t, err)
	var msg postedMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "/app/svc\n```bad {\"a\":}\n```", sectionText(msg))
}
