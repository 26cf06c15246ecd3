// Package provision plans and applies the cloud resources that connect log
// groups to a deployed notifier handler.
package provision

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/mosajjal/lognotifier/pkg/datetime"
)

// Environment variables read by the handler
const (
	EnvWebhookURL     = "SLACK_INCOMING_WEBHOOK_URL"
	EnvDateTimeFormat = "RESOLVED_DATETIME_FORMAT_OPTIONS"
	EnvConsoleRegion  = "CONSOLE_REGION"
)

// LogsPrincipal is the service principal CloudWatch Logs invokes functions as
const LogsPrincipal = "logs.amazonaws.com"

// Destination references the handler function. It is either Owned or Imported.
type Destination interface {
	FunctionARN() string
	destination()
}

// Owned is a handler deployed by this notifier. It carries a single broad
// invoke permission, so subscriptions need no grant of their own.
type Owned struct {
	ARN string
}

func (o Owned) FunctionARN() string { return o.ARN }
func (Owned) destination()          {}

// Imported is a handler deployed elsewhere and referenced by attributes. Every
// subscription gets its own permission scoped to the watched log group.
type Imported struct {
	ARN string
}

func (i Imported) FunctionARN() string { return i.ARN }
func (Imported) destination()          {}

// Attributes identify a notifier so other deployments can re-import it
type Attributes struct {
	DestinationFunctionARN string `json:"destinationFunctionArn"`
	FilterPattern          string `json:"filterPattern"`
}

// Props configure a new notifier
type Props struct {
	FunctionARN   string
	FilterPattern string
	WebhookURL    string
	ConsoleRegion string
	DateTime      datetime.Options
}

// Notifier is the provisioning descriptor of a log notifier
type Notifier struct {
	ID            string
	FilterPattern string
	Destination   Destination

	props *Props // set by New
}

// LogGroup is a watched log group
type LogGroup struct {
	Name string
	ARN  string
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,48}$`)

// New describes a notifier that owns its handler
func New(id string, props Props) (*Notifier, error) {
	if !idPattern.MatchString(id) {
		return nil, fmt.Errorf("invalid notifier id %q: must match %s", id, idPattern)
	}
	if props.FunctionARN == "" {
		return nil, fmt.Errorf("function ARN is required")
	}
	if props.WebhookURL == "" {
		return nil, fmt.Errorf("webhook URL is required")
	}
	if _, err := datetime.NewFormatter(props.DateTime); err != nil {
		return nil, fmt.Errorf("invalid date-time format options: %w", err)
	}
	return &Notifier{
		ID:            id,
		FilterPattern: props.FilterPattern,
		Destination:   Owned{ARN: props.FunctionARN},
		props:         &props,
	}, nil
}

// NewOwned describes a notifier whose handler this deployment owns but whose
// environment is managed elsewhere
func NewOwned(id, functionARN, filterPattern string) (*Notifier, error) {
	if !idPattern.MatchString(id) {
		return nil, fmt.Errorf("invalid notifier id %q: must match %s", id, idPattern)
	}
	if functionARN == "" {
		return nil, fmt.Errorf("function ARN is required")
	}
	return &Notifier{
		ID:            id,
		FilterPattern: filterPattern,
		Destination:   Owned{ARN: functionARN},
	}, nil
}

// FromAttributes describes a notifier whose handler was deployed elsewhere
func FromAttributes(id string, attrs Attributes) (*Notifier, error) {
	if !idPattern.MatchString(id) {
		return nil, fmt.Errorf("invalid notifier id %q: must match %s", id, idPattern)
	}
	if attrs.DestinationFunctionARN == "" {
		return nil, fmt.Errorf("destination function ARN is required")
	}
	return &Notifier{
		ID:            id,
		FilterPattern: attrs.FilterPattern,
		Destination:   Imported{ARN: attrs.DestinationFunctionARN},
	}, nil
}

// Attributes returns what another deployment needs to re-import this notifier
func (n *Notifier) Attributes() Attributes {
	return Attributes{
		DestinationFunctionARN: n.Destination.FunctionARN(),
		FilterPattern:          n.FilterPattern,
	}
}

// Deploy plans the resources of the handler itself: its environment, when
// the notifier was built with New, and one invoke permission for any log
// group. Imported notifiers plan nothing.
func (n *Notifier) Deploy() []Resource {
	if _, ok := n.Destination.(Owned); !ok {
		return nil
	}

	var resources []Resource
	if n.props != nil {
		env := map[string]string{
			EnvWebhookURL:     n.props.WebhookURL,
			EnvDateTimeFormat: n.props.DateTime.String(),
		}
		if n.props.ConsoleRegion != "" {
			env[EnvConsoleRegion] = n.props.ConsoleRegion
		}
		resources = append(resources, FunctionEnvironment{
			FunctionARN: n.Destination.FunctionARN(),
			Variables:   env,
		})
	}

	return append(resources, Permission{
		StatementID: "AnyLogsCanInvoke",
		FunctionARN: n.Destination.FunctionARN(),
		Principal:   LogsPrincipal,
	})
}

// Watch plans the subscription of logGroup to the handler
func (n *Notifier) Watch(logGroup LogGroup) []Resource {
	name := n.filterName(logGroup)
	filter := SubscriptionFilter{
		Name:           name,
		LogGroupName:   logGroup.Name,
		FilterPattern:  n.FilterPattern,
		DestinationARN: n.Destination.FunctionARN(),
	}

	switch n.Destination.(type) {
	case Imported:
		// the grant must exist before the filter is created
		return []Resource{
			Permission{
				StatementID: name,
				FunctionARN: n.Destination.FunctionARN(),
				Principal:   LogsPrincipal,
				SourceARN:   logGroup.ARN,
			},
			filter,
		}
	default:
		return []Resource{filter}
	}
}

// filterNamespace scopes generated filter names
var filterNamespace = uuid.MustParse("7d3c1f4e-2b6a-5e8f-9a0b-4c1d2e3f4a5b")

// filterName is unique per notifier and log group, and stable across runs
func (n *Notifier) filterName(logGroup LogGroup) string {
	id := uuid.NewSHA1(filterNamespace, []byte(n.ID+"\x00"+logGroup.Name))
	return fmt.Sprintf("%s-%s-SubscriptionFilter", n.ID, id.String()[:8])
}
