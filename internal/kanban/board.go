// Package kanban groups tasks into the fixed status columns of a board.
package kanban

import "github.com/ErnestWetherell/microcanvas-m1/internal/models"

type Column struct {
	Status models.TaskStatus
	Label  string
	Tasks  []models.Task
}

func (c Column) Len() int { return len(c.Tasks) }

// Build partitions tasks into one column per status, in display order.
// Within a column, tasks keep the order they had in the input.
func Build(tasks []models.Task) []Column {
	columns := make([]Column, len(models.Statuses))
	index := make(map[models.TaskStatus]int, len(models.Statuses))
	for i, s := range models.Statuses {
		columns[i] = Column{Status: s, Label: s.Label(), Tasks: []models.Task{}}
		index[s] = i
	}

	for _, t := range tasks {
		if i, ok := index[t.Status]; ok {
			columns[i].Tasks = append(columns[i].Tasks, t)
		}
	}
	return columns
}

// Summary is the per-course rollup shown on the analytics page.
type Summary struct {
	Total    int
	ByStatus map[models.TaskStatus]int
	Graded   int
	// AveragePercent is the mean of score/points over graded tasks, 0 when none are graded.
	AveragePercent float64
}

func (s Summary) Count(status models.TaskStatus) int { return s.ByStatus[status] }

func (s Summary) CompletionPercent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.ByStatus[models.StatusDone]) * 100 / float64(s.Total)
}

func Summarize(tasks []models.Task) Summary {
	sum := Summary{ByStatus: make(map[models.TaskStatus]int, len(models.Statuses))}
	var percents float64
	for _, col := range Build(tasks) {
		sum.ByStatus[col.Status] = col.Len()
		sum.Total += col.Len()
		for _, t := range col.Tasks {
			if t.Score == nil || t.Points <= 0 {
				continue
			}
			sum.Graded++
			percents += float64(*t.Score) * 100 / float64(t.Points)
		}
	}
	if sum.Graded > 0 {
		sum.AveragePercent = percents / float64(sum.Graded)
	}
	return sum
}
