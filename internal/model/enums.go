package model

// Job status lifecycle. Transitions are strictly forward:
// Open → InProgress → Complete → Paid.
type JobStatus string

const (
	JobStatusOpen       JobStatus = "Open"
	JobStatusInProgress JobStatus = "InProgress"
	JobStatusComplete   JobStatus = "Complete"
	JobStatusPaid       JobStatus = "Paid"
)

var ValidJobStatuses = []JobStatus{
	JobStatusOpen, JobStatusInProgress, JobStatusComplete, JobStatusPaid,
}

// jobStatusRank orders the lifecycle; a transition is valid only when it
// moves exactly one rank forward.
var jobStatusRank = map[JobStatus]int{
	JobStatusOpen:       0,
	JobStatusInProgress: 1,
	JobStatusComplete:   2,
	JobStatusPaid:       3,
}

// IsValid reports whether s is a known lifecycle status.
func (s JobStatus) IsValid() bool {
	_, ok := jobStatusRank[s]
	return ok
}

// CanTransition reports whether from → to is a legal lifecycle step.
// Backward and skip-ahead transitions are never legal.
func CanTransition(from, to JobStatus) bool {
	fromRank, ok := jobStatusRank[from]
	if !ok {
		return false
	}
	toRank, ok := jobStatusRank[to]
	if !ok {
		return false
	}
	return toRank == fromRank+1
}

// Trades offered on the marketplace
type Trade string

const (
	TradePlumbing    Trade = "plumbing"
	TradeElectrical  Trade = "electrical"
	TradePainting    Trade = "painting"
	TradeHVAC        Trade = "hvac"
	TradeRoofing     Trade = "roofing"
	TradeCarpentry   Trade = "carpentry"
	TradeLandscaping Trade = "landscaping"
	TradeFlooring    Trade = "flooring"
	TradeCleaning    Trade = "cleaning"
	TradeGeneral     Trade = "general"
)

var ValidTrades = []Trade{
	TradePlumbing, TradeElectrical, TradePainting, TradeHVAC, TradeRoofing,
	TradeCarpentry, TradeLandscaping, TradeFlooring, TradeCleaning, TradeGeneral,
}

// Marketplace roles
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleContractor Role = "contractor"
	RoleAdmin      Role = "admin"
	RoleInvestor   Role = "investor"
)

// Material status — informational tag, never gates the workflow
type MaterialStatus string

const (
	MaterialStatusPending   MaterialStatus = "pending"
	MaterialStatusOrdered   MaterialStatus = "ordered"
	MaterialStatusDelivered MaterialStatus = "delivered"
	MaterialStatusOnSite    MaterialStatus = "on_site"
)

// Contractor execution workflow steps
const (
	StepAcknowledgment = 1
	StepWalkthrough    = 2
	StepQuoteReview    = 3
	StepExecution      = 4
	StepHandover       = 5

	MinProgressStep = StepAcknowledgment
	MaxProgressStep = StepHandover
)

var progressStepNames = map[int]string{
	StepAcknowledgment: "Acknowledgment",
	StepWalkthrough:    "Walkthrough",
	StepQuoteReview:    "Quote Review",
	StepExecution:      "Execution & Milestones",
	StepHandover:       "Completion & Handover",
}

// ProgressStepName returns the display name for a workflow step.
func ProgressStepName(step int) string {
	return progressStepNames[step]
}

// IsValidProgressStep reports whether step is within the 5-step workflow.
func IsValidProgressStep(step int) bool {
	return step >= MinProgressStep && step <= MaxProgressStep
}
