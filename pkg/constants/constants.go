package constants

// CLIName is the name of the command-line tool.
const CLIName = "wfcheck"

// WorkflowEligibleAnnotation marks a leaf CLI command as usable inside a workflow step.
// The annotation value must be "true".
const WorkflowEligibleAnnotation = "wfcheck/workflow-eligible"

// MaxConcurrencyEnvVar caps how many configuration files are validated at once.
const MaxConcurrencyEnvVar = "WFCHECK_MAX_CONCURRENCY"

// DefaultKeepAliveHours is how long the execution environment of a workflow run is kept alive.
const DefaultKeepAliveHours = 48

// Default container limits applied to a workflow when `limits` is omitted.
// CPU is expressed in millicpu, memory in megabytes; these are also the minimums.
const (
	DefaultLimitsCPU    = 1000
	DefaultLimitsMemory = 1024
)

// StepCondition is the `when` clause of a workflow step.
type StepCondition string

const (
	StepConditionOnSuccess StepCondition = "onSuccess"
	StepConditionOnError   StepCondition = "onError"
	StepConditionAlways    StepCondition = "always"
	StepConditionNever     StepCondition = "never"
)

// StepConditions lists every valid `when` value, default first.
var StepConditions = []StepCondition{
	StepConditionOnSuccess,
	StepConditionOnError,
	StepConditionAlways,
	StepConditionNever,
}

// TriggerEvents is the vocabulary of repository events a trigger may listen to.
var TriggerEvents = []string{
	"push",
	"pull-request",
	"pull-request-closed",
	"pull-request-created",
	"pull-request-merged",
	"pull-request-opened",
	"pull-request-reopened",
	"pull-request-updated",
}

// GlobalFlags are the flags reserved for the top-level CLI invocation. They are
// registered as persistent flags on the root command, and a step that sets one
// of them in its own arguments is rejected (they would be dropped at run time).
var GlobalFlags = []string{
	"root",
	"silent",
	"env",
	"logger-type",
	"log-level",
	"output",
	"emoji",
	"show-timestamps",
	"yes",
	"force-refresh",
	"var",
	"disable-port-forwards",
}

// ProjectConfigFileNames are looked up, in order, when --project is not given.
var ProjectConfigFileNames = []string{"project.garden.yml", "garden.yml"}
