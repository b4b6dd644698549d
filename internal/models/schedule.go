package models

// ScheduleResult is one shipping-schedule recommendation
type ScheduleResult struct {
	Company     string `json:"company"`
	Vessel      string `json:"vessel"`
	Fare        string `json:"fare"`
	ETD         string `json:"etd"`
	ETA         string `json:"eta"`
	ScheduleURL string `json:"schedule_url,omitempty"`
	RawResponse string `json:"raw_response"`
	Status      string `json:"status,omitempty"`
}

// Operator tags applied to a schedule result row
const (
	ScheduleTagNone       = "none"
	ScheduleTagDone       = "done"
	ScheduleTagProcessing = "processing"
	ScheduleTagExclude    = "exclude"
)
