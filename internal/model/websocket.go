package model

// WebSocket message types
const (
	WSMessageTypeProgress = "progress"
	WSMessageTypeStatus   = "status"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSProgressMessage notifies subscribers of a workflow step change
type WSProgressMessage struct {
	Type         string    `json:"type"`
	JobID        string    `json:"jobId"`
	CurrentStep  int       `json:"currentStep"`
	StepName     string    `json:"stepName,omitempty"`
	Acknowledged bool      `json:"acknowledged"`
	Status       JobStatus `json:"status"`
}

// WSStatusMessage notifies subscribers of a lifecycle status change
type WSStatusMessage struct {
	Type                 string    `json:"type"`
	JobID                string    `json:"jobId"`
	Status               JobStatus `json:"status"`
	AssignedContractorID string    `json:"assignedContractorId,omitempty"`
}

// WSCompleteMessage notifies subscribers that a job reached Complete
type WSCompleteMessage struct {
	Type   string      `json:"type"`
	JobID  string      `json:"jobId"`
	Result interface{} `json:"result"`
}

// WSErrorMessage represents an error
type WSErrorMessage struct {
	Type  string  `json:"type"`
	JobID string  `json:"jobId"`
	Error WSError `json:"error"`
}

// WSError represents error details
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
