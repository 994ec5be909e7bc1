package model

// TriggerType indicates what started a screening run.
type TriggerType string

const (
	TriggerScheduled TriggerType = "SCHEDULED"
	TriggerManual    TriggerType = "MANUAL"
	TriggerCLI       TriggerType = "CLI"
)
