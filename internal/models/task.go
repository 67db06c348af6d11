package models

import "time"

// TaskStatus is the lifecycle state of an automation task.
type TaskStatus string

const (
	TaskIdle      TaskStatus = "idle"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskStopped   TaskStatus = "stopped"
	TaskError     TaskStatus = "error"
)

// Unlimited marks a cap or a quota without an upper bound.
const Unlimited = -1

// Terminal reports whether no further transition is possible from s.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskStopped || s == TaskError
}

// TaskConfig describes what a task scrapes.
type TaskConfig struct {
	Industry         string   `json:"industry"`
	Locations        []string `json:"locations"`
	LimitPerLocation int      `json:"limit_per_location"`
}

// Task is a point-in-time view of an automation task.
type Task struct {
	ID            string     `json:"id"`
	Config        TaskConfig `json:"config"`
	Status        TaskStatus `json:"status"`
	Running       bool       `json:"running"`
	StopRequested bool       `json:"stop"`
	Error         *string    `json:"error"`
	OwnerKeyID    int64      `json:"owner_key_id"`
	LeadsStored   int        `json:"leads_stored"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}
