package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	_ "time/tzdata"

	"github.com/alexflint/go-arg"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/sirupsen/logrus"

	"github.com/mosajjal/lognotifier/pkg/datetime"
	"github.com/mosajjal/lognotifier/pkg/provision"
)

type DeployCmd struct {
	FunctionARN   string `arg:"--function-arn,required" help:"ARN of the deployed handler function"`
	FilterPattern string `arg:"--filter-pattern" help:"CloudWatch Logs filter pattern, e.g. ERROR"`
	WebhookURL    string `arg:"--webhook-url,env:SLACK_INCOMING_WEBHOOK_URL,required" help:"incoming webhook URL or a Secrets Manager ARN holding it"`
	Locale        string `arg:"--locale,env:LANG" help:"locale for timestamps (BCP 47 or POSIX)"`
	TimeZone      string `arg:"--time-zone,env:TZ" help:"IANA time zone for timestamps" default:"UTC"`
	Hour12        string `arg:"--hour12" help:"true or false, defaults to the locale's clock"`
	ConsoleRegion string `arg:"--console-region" help:"region of the console host used in links"`
}

type WatchCmd struct {
	Attributes    string   `arg:"--attributes" help:"attributes JSON of a notifier deployed elsewhere"`
	FunctionARN   string   `arg:"--function-arn" help:"ARN of a handler deployed by this notifier"`
	FilterPattern string   `arg:"--filter-pattern"`
	LogGroups     []string `arg:"positional,required" help:"log group names to watch"`
}

type AttributesCmd struct {
	FunctionARN   string `arg:"--function-arn,required"`
	FilterPattern string `arg:"--filter-pattern"`
}

var args struct {
	Deploy     *DeployCmd     `arg:"subcommand:deploy" help:"configure the handler and let CloudWatch Logs invoke it"`
	Watch      *WatchCmd      `arg:"subcommand:watch" help:"subscribe log groups to the handler"`
	Attributes *AttributesCmd `arg:"subcommand:attributes" help:"print attributes for re-importing a notifier"`

	ID              string `arg:"--id" default:"logNotifier" help:"notifier id, scopes generated resource names"`
	Region          string `arg:"--region,env:AWS_REGION"`
	Profile         string `arg:"--profile,env:AWS_PROFILE"`
	AccessKeyID     string `arg:"--access-key-id,env:LOGNOTIFIER_ACCESS_KEY_ID"`
	AccessKeySecret string `arg:"--access-key-secret,env:LOGNOTIFIER_ACCESS_KEY_SECRET"`
	Verbose         bool   `arg:"-v,--verbose"`
}

func main() {
	p := arg.MustParse(&args)

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if args.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	var err error
	switch {
	case args.Deploy != nil:
		err = deploy(context.Background(), logger, args.Deploy)
	case args.Watch != nil:
		err = watch(context.Background(), logger, args.Watch)
	case args.Attributes != nil:
		var n *provision.Notifier
		n, err = provision.FromAttributes(args.ID, provision.Attributes{
			DestinationFunctionARN: args.Attributes.FunctionARN,
			FilterPattern:          args.Attributes.FilterPattern,
		})
		if err == nil {
			err = printAttributes(n)
		}
	default:
		p.Fail("missing subcommand")
	}
	if err != nil {
		logger.WithError(err).Fatal("Provisioning failed")
	}
}

func newApplier(ctx context.Context, logger logrus.FieldLogger) (*provision.Applier, error) {
	opts := []func(*config.LoadOptions) error{}
	if args.Region != "" {
		opts = append(opts, config.WithRegion(args.Region))
	}
	if args.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(args.Profile))
	}
	// if access keys are not provided, use the default credentials chain
	if args.AccessKeyID != "" && args.AccessKeySecret != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(args.AccessKeyID, args.AccessKeySecret, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}
	return provision.NewApplier(
		cloudwatchlogs.NewFromConfig(awsConfig),
		lambda.NewFromConfig(awsConfig),
		logger,
	), nil
}

func deploy(ctx context.Context, logger logrus.FieldLogger, cmd *DeployCmd) error {
	tz, err := datetime.TimeZoneFromPOSIX(cmd.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid --time-zone: %w", err)
	}
	in := datetime.ResolveInput{
		Locale:   datetime.LocaleFromPOSIX(cmd.Locale),
		TimeZone: tz,
	}
	if cmd.Hour12 != "" {
		hour12, err := strconv.ParseBool(cmd.Hour12)
		if err != nil {
			return fmt.Errorf("invalid --hour12: %w", err)
		}
		in.Hour12 = &hour12
	}
	opts, err := datetime.Resolve(in)
	if err != nil {
		return fmt.Errorf("failed to resolve date-time format: %w", err)
	}
	logger.WithField("options", opts.String()).Debug("Resolved date-time format")

	n, err := provision.New(args.ID, provision.Props{
		FunctionARN:   cmd.FunctionARN,
		FilterPattern: cmd.FilterPattern,
		WebhookURL:    cmd.WebhookURL,
		ConsoleRegion: cmd.ConsoleRegion,
		DateTime:      opts,
	})
	if err != nil {
		return err
	}

	applier, err := newApplier(ctx, logger)
	if err != nil {
		return err
	}
	if err := applier.Apply(ctx, n.Deploy()); err != nil {
		return err
	}
	return printAttributes(n)
}

func watch(ctx context.Context, logger logrus.FieldLogger, cmd *WatchCmd) error {
	var n *provision.Notifier
	switch {
	case cmd.Attributes != "":
		var attrs provision.Attributes
		if err := json.Unmarshal([]byte(cmd.Attributes), &attrs); err != nil {
			return fmt.Errorf("invalid --attributes: %w", err)
		}
		if cmd.FilterPattern != "" {
			attrs.FilterPattern = cmd.FilterPattern
		}
		var err error
		if n, err = provision.FromAttributes(args.ID, attrs); err != nil {
			return err
		}
	case cmd.FunctionARN != "":
		var err error
		if n, err = provision.NewOwned(args.ID, cmd.FunctionARN, cmd.FilterPattern); err != nil {
			return err
		}
	default:
		return fmt.Errorf("either --attributes or --function-arn is required")
	}

	applier, err := newApplier(ctx, logger)
	if err != nil {
		return err
	}
	for _, name := range cmd.LogGroups {
		group, err := applier.LookupLogGroup(ctx, name)
		if err != nil {
			return err
		}
		if err := applier.Apply(ctx, n.Watch(group)); err != nil {
			return err
		}
	}
	return nil
}

func printAttributes(n *provision.Notifier) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(n.Attributes())
}
