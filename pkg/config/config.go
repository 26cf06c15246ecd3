// Package config resolves the handler's process-wide configuration once at
// cold start.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/sirupsen/logrus"

	"github.com/mosajjal/lognotifier/pkg/datetime"
	"github.com/mosajjal/lognotifier/pkg/slack"
)

// Args is the raw configuration read from the environment
type Args struct {
	WebhookURL     string        `arg:"env:SLACK_INCOMING_WEBHOOK_URL,required" help:"incoming webhook URL, or a Secrets Manager ARN holding it"`
	DateTimeFormat string        `arg:"env:RESOLVED_DATETIME_FORMAT_OPTIONS,required" help:"JSON encoded resolved date-time format options"`
	Region         string        `arg:"env:AWS_REGION" help:"region of the watched log groups"`
	ConsoleRegion  string        `arg:"env:CONSOLE_REGION" help:"region of the console host used in links, defaults to AWS_REGION"`
	Proxy          string        `arg:"env:WEBHOOK_PROXY" help:"HTTP proxy for webhook requests"`
	TLSSkipVerify  bool          `arg:"env:WEBHOOK_TLS_SKIP_VERIFY" default:"false"`
	Timeout        time.Duration `arg:"env:WEBHOOK_TIMEOUT" default:"0s" help:"per-request webhook timeout, 0 disables it"`
	LogLevel       string        `arg:"env:LOG_LEVEL" default:"info"`
}

// Config is the resolved, read-only handler configuration
type Config struct {
	Webhook  slack.Config
	Link     slack.ConsoleLink
	DateTime *datetime.Formatter
	LogLevel logrus.Level
}

// SecretsAPI is the subset of the Secrets Manager client used to resolve the webhook URL
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

const secretARNPrefix = "arn:aws:secretsmanager:"

// ParseArgs reads Args from the environment and the given command line
func ParseArgs(cmdline []string) (Args, error) {
	var args Args
	p, err := arg.NewParser(arg.Config{Program: "lognotifier-handler"}, &args)
	if err != nil {
		return Args{}, err
	}
	if err := p.Parse(cmdline); err != nil {
		return Args{}, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return args, nil
}

// Load resolves args into a Config. secrets is only used when the webhook URL
// is a Secrets Manager ARN and may be nil otherwise.
func Load(ctx context.Context, args Args, secrets SecretsAPI) (*Config, error) {
	level, err := logrus.ParseLevel(args.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	webhookURL, err := resolveWebhookURL(ctx, args.WebhookURL, secrets)
	if err != nil {
		return nil, err
	}

	opts, err := datetime.ParseOptions(args.DateTimeFormat)
	if err != nil {
		return nil, fmt.Errorf("RESOLVED_DATETIME_FORMAT_OPTIONS is invalid: %w", err)
	}
	formatter, err := datetime.NewFormatter(opts)
	if err != nil {
		return nil, fmt.Errorf("RESOLVED_DATETIME_FORMAT_OPTIONS is invalid: %w", err)
	}

	consoleRegion := args.ConsoleRegion
	if consoleRegion == "" {
		consoleRegion = args.Region
	}

	return &Config{
		Webhook: slack.Config{
			WebhookURL:    webhookURL,
			Proxy:         args.Proxy,
			TLSSkipVerify: args.TLSSkipVerify,
			Timeout:       args.Timeout,
		},
		Link: slack.ConsoleLink{
			ConsoleRegion: consoleRegion,
			Region:        args.Region,
		},
		DateTime: formatter,
		LogLevel: level,
	}, nil
}

// resolveWebhookURL returns url as is, or the secret string it points to if it
// is a Secrets Manager ARN
func resolveWebhookURL(ctx context.Context, url string, secrets SecretsAPI) (string, error) {
	if url == "" {
		return "", fmt.Errorf("SLACK_INCOMING_WEBHOOK_URL is not set")
	}
	if !strings.HasPrefix(url, secretARNPrefix) {
		return url, nil
	}
	if secrets == nil {
		return "", fmt.Errorf("SLACK_INCOMING_WEBHOOK_URL is a secret ARN but no Secrets Manager client is configured")
	}

	secret, err := secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(url),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get webhook URL from Secrets Manager: %w", err)
	}
	if secret.SecretString == nil || *secret.SecretString == "" {
		return "", fmt.Errorf("secret %s has no string value", url)
	}
	return strings.TrimSpace(*secret.SecretString), nil
}
