package config

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOptions = `{"locale":"en-US","calendar":"gregory","numberingSystem":"latn","timeZone":"UTC"}`

type fakeSecrets struct {
	value string
	err   error
	asked []string
}

func (f *fakeSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.asked = append(f.asked, aws.ToString(params.SecretId))
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(f.value)}, nil
}

func TestParseArgs(t *testing.T) {
	t.Setenv("SLACK_INCOMING_WEBHOOK_URL", "https://hooks.slack.com/test")
	t.Setenv("RESOLVED_DATETIME_FORMAT_OPTIONS", testOptions)
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("WEBHOOK_TIMEOUT", "3s")

	args, err := ParseArgs(nil)
	require.NoError(t, err)

	assert.Equal(t, "https://hooks.slack.com/test", args.WebhookURL)
	assert.Equal(t, testOptions, args.DateTimeFormat)
	assert.Equal(t, "eu-west-1", args.Region)
	assert.Equal(t, 3*time.Second, args.Timeout)
	assert.False(t, args.TLSSkipVerify)
	assert.Equal(t, "info", args.LogLevel)
}

func TestParseArgs_MissingRequired(t *testing.T) {
	t.Setenv("SLACK_INCOMING_WEBHOOK_URL", "")
	os.Unsetenv("SLACK_INCOMING_WEBHOOK_URL")
	t.Setenv("RESOLVED_DATETIME_FORMAT_OPTIONS", testOptions)

	_, err := ParseArgs(nil)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	cfg, err := Load(context.Background(), Args{
		WebhookURL:     "https://hooks.slack.com/test",
		DateTimeFormat: testOptions,
		Region:         "eu-west-1",
		Timeout:        time.Second,
		LogLevel:       "debug",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "https://hooks.slack.com/test", cfg.Webhook.WebhookURL)
	assert.Equal(t, time.Second, cfg.Webhook.Timeout)
	assert.Equal(t, "eu-west-1", cfg.Link.Region)
	assert.Equal(t, "eu-west-1", cfg.Link.ConsoleRegion)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, "11/14/2023, 10:13:20 PM", cfg.DateTime.Format(time.UnixMilli(1700000000000)))
}

func TestLoad_ConsoleRegionOverride(t *testing.T) {
	cfg, err := Load(context.Background(), Args{
		WebhookURL:     "https://hooks.slack.com/test",
		DateTimeFormat: testOptions,
		Region:         "eu-west-1",
		ConsoleRegion:  "ap-northeast-1",
		LogLevel:       "info",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "ap-northeast-1", cfg.Link.ConsoleRegion)
	assert.Equal(t, "eu-west-1", cfg.Link.Region)
}

func TestLoad_SecretWebhookURL(t *testing.T) {
	arn := "arn:aws:secretsmanager:eu-west-1:123456789012:secret:slack-abc"
	secrets := &fakeSecrets{value: "https://hooks.slack.com/secret\n"}

	cfg, err := Load(context.Background(), Args{
		WebhookURL:     arn,
		DateTimeFormat: testOptions,
		LogLevel:       "info",
	}, secrets)
	require.NoError(t, err)

	assert.Equal(t, "https://hooks.slack.com/secret", cfg.Webhook.WebhookURL)
	assert.Equal(t, []string{arn}, secrets.asked)
}

func TestLoad_Errors(t *testing.T) {
	arn := "arn:aws:secretsmanager:eu-west-1:123456789012:secret:slack-abc"
	valid := Args{WebhookURL: "https://hooks.slack.com/test", DateTimeFormat: testOptions, LogLevel: "info"}

	tests := []struct {
		name    string
		mutate  func(*Args)
		secrets SecretsAPI
	}{
		{"missing webhook", func(a *Args) { a.WebhookURL = "" }, nil},
		{"missing options", func(a *Args) { a.DateTimeFormat = "" }, nil},
		{"malformed options", func(a *Args) { a.DateTimeFormat = "{" }, nil},
		{"unknown time zone", func(a *Args) {
			a.DateTimeFormat = `{"locale":"en-US","calendar":"gregory","numberingSystem":"latn","timeZone":"Nowhere/Land"}`
		}, nil},
		{"bad log level", func(a *Args) { a.LogLevel = "loud" }, nil},
		{"secret without client", func(a *Args) { a.WebhookURL = arn }, nil},
		{"secret lookup fails", func(a *Args) { a.WebhookURL = arn }, &fakeSecrets{err: errors.New("denied")}},
		{"empty secret", func(a *Args) { a.WebhookURL = arn }, &fakeSecrets{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := valid
			tt.mutate(&args)
			cfg, err := Load(context.Background(), args, tt.secrets)
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}
