package main

import (
	"context"
	"os"
	_ "time/tzdata"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/sirupsen/logrus"

	lnconfig "github.com/mosajjal/lognotifier/pkg/config"
	"github.com/mosajjal/lognotifier/pkg/notifier"
	"github.com/mosajjal/lognotifier/pkg/slack"
)

var handler *notifier.Handler

func init() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	args, err := lnconfig.ParseArgs(os.Args[1:])
	if err != nil {
		logger.WithError(err).Fatal("Failed to read configuration")
	}

	// Secrets Manager is only called when the webhook URL is a secret ARN
	awsConfig, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		logger.WithError(err).Fatal("Unable to load AWS config")
	}

	cfg, err := lnconfig.Load(context.Background(), args, secretsmanager.NewFromConfig(awsConfig))
	if err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	logger.SetLevel(cfg.LogLevel)
	logger.WithField("dateTimeFormat", cfg.DateTime.Options().String()).Debug("Timestamp format resolved")

	client, err := slack.NewClient(cfg.Webhook)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create webhook client")
	}

	handler = notifier.NewHandler(cfg, client, logger)
	logger.Info("Log notifier handler initialized")
}

func main() {
	lambda.Start(handler.Handle)
}
