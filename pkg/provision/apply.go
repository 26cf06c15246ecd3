package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/sirupsen/logrus"
)

// LogsAPI is the subset of the CloudWatch Logs client used by the Applier
type LogsAPI interface {
	PutSubscriptionFilter(ctx context.Context, params *cloudwatchlogs.PutSubscriptionFilterInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutSubscriptionFilterOutput, error)
	DescribeLogGroups(ctx context.Context, params *cloudwatchlogs.DescribeLogGroupsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogGroupsOutput, error)
}

// LambdaAPI is the subset of the Lambda client used by the Applier
type LambdaAPI interface {
	AddPermission(ctx context.Context, params *lambda.AddPermissionInput, optFns ...func(*lambda.Options)) (*lambda.AddPermissionOutput, error)
	GetFunctionConfiguration(ctx context.Context, params *lambda.GetFunctionConfigurationInput, optFns ...func(*lambda.Options)) (*lambda.GetFunctionConfigurationOutput, error)
	UpdateFunctionConfiguration(ctx context.Context, params *lambda.UpdateFunctionConfigurationInput, optFns ...func(*lambda.Options)) (*lambda.UpdateFunctionConfigurationOutput, error)
}

// Applier creates planned resources
type Applier struct {
	logs   LogsAPI
	lambda LambdaAPI
	log    logrus.FieldLogger
}

// NewApplier creates a new Applier
func NewApplier(logs LogsAPI, lambda LambdaAPI, log logrus.FieldLogger) *Applier {
	return &Applier{logs: logs, lambda: lambda, log: log}
}

// Apply creates resources in order and stops at the first failure
func (a *Applier) Apply(ctx context.Context, resources []Resource) error {
	for _, r := range resources {
		var err error
		switch r := r.(type) {
		case SubscriptionFilter:
			err = a.putSubscriptionFilter(ctx, r)
		case Permission:
			err = a.addPermission(ctx, r)
		case FunctionEnvironment:
			err = a.updateEnvironment(ctx, r)
		default:
			err = fmt.Errorf("unsupported resource %T", r)
		}
		if err != nil {
			return fmt.Errorf("failed to apply %s: %w", r.Kind(), err)
		}
	}
	return nil
}

// LookupLogGroup finds the log group called name
func (a *Applier) LookupLogGroup(ctx context.Context, name string) (LogGroup, error) {
	paginator := cloudwatchlogs.NewDescribeLogGroupsPaginator(a.logs, &cloudwatchlogs.DescribeLogGroupsInput{
		LogGroupNamePrefix: aws.String(name),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return LogGroup{}, fmt.Errorf("failed to describe log groups: %w", err)
		}
		for _, g := range page.LogGroups {
			if aws.ToString(g.LogGroupName) == name {
				return LogGroup{Name: name, ARN: aws.ToString(g.Arn)}, nil
			}
		}
	}
	return LogGroup{}, fmt.Errorf("log group %s not found", name)
}

func (a *Applier) putSubscriptionFilter(ctx context.Context, f SubscriptionFilter) error {
	_, err := a.logs.PutSubscriptionFilter(ctx, &cloudwatchlogs.PutSubscriptionFilterInput{
		FilterName:     aws.String(f.Name),
		LogGroupName:   aws.String(f.LogGroupName),
		FilterPattern:  aws.String(f.FilterPattern),
		DestinationArn: aws.String(f.DestinationARN),
	})
	if err != nil {
		return err
	}
	a.log.WithFields(logrus.Fields{
		"filter":   f.Name,
		"logGroup": f.LogGroupName,
	}).Info("Subscription filter created")
	return nil
}

func (a *Applier) addPermission(ctx context.Context, p Permission) error {
	input := &lambda.AddPermissionInput{
		Action:       aws.String("lambda:InvokeFunction"),
		FunctionName: aws.String(p.FunctionARN),
		Principal:    aws.String(p.Principal),
		StatementId:  aws.String(p.StatementID),
	}
	if p.SourceARN != "" {
		input.SourceArn = aws.String(p.SourceARN)
	}

	logger := a.log.WithFields(logrus.Fields{
		"statement": p.StatementID,
		"function":  p.FunctionARN,
	})
	if _, err := a.lambda.AddPermission(ctx, input); err != nil {
		var conflict *lambdatypes.ResourceConflictException
		if errors.As(err, &conflict) {
			logger.Info("Permission already granted")
			return nil
		}
		return err
	}
	logger.Info("Permission granted")
	return nil
}

func (a *Applier) updateEnvironment(ctx context.Context, e FunctionEnvironment) error {
	current, err := a.lambda.GetFunctionConfiguration(ctx, &lambda.GetFunctionConfigurationInput{
		FunctionName: aws.String(e.FunctionARN),
	})
	if err != nil {
		return err
	}

	vars := map[string]string{}
	if current.Environment != nil {
		for k, v := range current.Environment.Variables {
			vars[k] = v
		}
	}
	for k, v := range e.Variables {
		vars[k] = v
	}

	_, err = a.lambda.UpdateFunctionConfiguration(ctx, &lambda.UpdateFunctionConfigurationInput{
		FunctionName: aws.String(e.FunctionARN),
		Environment:  &lambdatypes.Environment{Variables: vars},
	})
	if err != nil {
		return err
	}
	a.log.WithField("function", e.FunctionARN).Info("Function environment updated")
	return nil
}
