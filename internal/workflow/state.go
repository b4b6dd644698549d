// Package workflow provides the small state machine behind the upload
// pipeline's view modes.
package workflow

// State is one view mode of the upload pipeline
type State string

const (
	// StateUpload is idle, awaiting a file
	StateUpload State = "upload"
	// StateProcessing means a file was submitted and OCR is in flight
	StateProcessing State = "processing"
	// StateSummary means fields are populated and editable
	StateSummary State = "summary"
)

var validStates = map[State]bool{
	StateUpload:     true,
	StateProcessing: true,
	StateSummary:    true,
}

// IsValid returns true if s is a known view mode
func (s State) IsValid() bool {
	return validStates[s]
}

func (s State) String() string {
	return string(s)
}

// Trigger is an event that can cause a state transition
type Trigger string

const (
	// TriggerSubmit fires when a file passes validation and upload begins
	TriggerSubmit Trigger = "SUBMIT"
	// TriggerExtracted fires when OCR extraction populated the draft
	TriggerExtracted Trigger = "EXTRACTED"
	// TriggerFail fires on any OCR failure, reverting to upload
	TriggerFail Trigger = "FAIL"
	// TriggerReset restarts the draft from scratch
	TriggerReset Trigger = "RESET"
)

func (t Trigger) String() string {
	return string(t)
}
