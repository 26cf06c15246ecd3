package provision

// Resource is a planned cloud resource
type Resource interface {
	Kind() string
}

// SubscriptionFilter links a log group to the handler
type SubscriptionFilter struct {
	Name           string
	LogGroupName   string
	FilterPattern  string
	DestinationARN string
}

// Permission lets a service principal invoke the handler. An empty SourceARN
// grants the principal access from any source.
type Permission struct {
	StatementID string
	FunctionARN string
	Principal   string
	SourceARN   string
}

// FunctionEnvironment sets environment variables on the handler, keeping any
// variables not listed
type FunctionEnvironment struct {
	FunctionARN string
	Variables   map[string]string
}

func (SubscriptionFilter) Kind() string  { return "AWS::Logs::SubscriptionFilter" }
func (Permission) Kind() string          { return "AWS::Lambda::Permission" }
func (FunctionEnvironment) Kind() string { return "AWS::Lambda::Function.Environment" }
