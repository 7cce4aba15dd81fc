package jobs

import "time"

// Action describes what a job should do with a file.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Valid reports whether a is a recognized action.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Job is a durable record of pending create/update/delete work for one
// file. Content is a snapshot taken at enqueue time, not a live reference,
// so a file changing again before processing cannot leak newer bytes into
// an older job.
type Job struct {
	ID        string    `json:"id"`
	FilePath  string    `json:"file_path"`
	Content   string    `json:"content,omitempty"`
	Action    Action    `json:"action"`
	Status    Status    `json:"status"`
	Priority  int       `json:"priority"`
	Retries   int       `json:"retries"`
	Error     string    `json:"error,omitempty"`
	WorkerID  string    `json:"worker_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stats holds job counts per status.
type Stats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// Total returns the total number of jobs across all states.
func (s Stats) Total() int {
	return s.Pending + s.Processing + s.Completed + s.Failed
}
