package orchestrator

import (
	"fmt"
	"slices"
	"time"

	"github.com/UnknownOlympus/anvesh/internal/models"
)

// Stats summarizes the task registry for administrators.
type Stats struct {
	Timestamp time.Time   `json:"timestamp"`
	Tasks     TaskCounts  `json:"tasks"`
	Active    ActiveScope `json:"active_scraping"`
	// SuccessRate is completed tasks over all tasks, or "N/A" when there are none.
	SuccessRate string `json:"success_rate"`
}

type TaskCounts struct {
	Total     int `json:"total"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Stopped   int `json:"stopped"`
	Error     int `json:"error"`
}

// ActiveScope lists what running tasks are currently searching.
type ActiveScope struct {
	Industries []string `json:"industries"`
	Locations  []string `json:"locations"`
}

// Stats counts tasks by status and collects the scope of running tasks.
func (o *Orchestrator) Stats() Stats {
	tasks := o.List()
	stats := Stats{
		Timestamp: o.now(),
		Active:    ActiveScope{Industries: []string{}, Locations: []string{}},
	}

	for _, task := range tasks {
		stats.Tasks.Total++
		switch task.Status {
		case models.TaskCompleted:
			stats.Tasks.Completed++
		case models.TaskStopped:
			stats.Tasks.Stopped++
		case models.TaskError:
			stats.Tasks.Error++
		case models.TaskIdle, models.TaskRunning:
		}

		if !task.Running {
			continue
		}
		stats.Tasks.Running++
		if !slices.Contains(stats.Active.Industries, task.Config.Industry) {
			stats.Active.Industries = append(stats.Active.Industries, task.Config.Industry)
		}
		for _, location := range task.Config.Locations {
			if !slices.Contains(stats.Active.Locations, location) {
				stats.Active.Locations = append(stats.Active.Locations, location)
			}
		}
	}

	stats.SuccessRate = successRate(stats.Tasks.Completed, stats.Tasks.Total)
	return stats
}

func successRate(completed, total int) string {
	if total == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", float64(completed)/float64(total)*100)
}
