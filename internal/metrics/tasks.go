package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	NameTasks        = "tasks"
	NameTaskDuration = "task_duration_seconds"
	NameJobs         = "jobs_total"
)

var Tasks = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name:      NameTasks,
		Help:      "Current tasks by status",
		Namespace: Namespace,
	},
	[]string{LabelStatus},
)

var TaskDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:      NameTaskDuration,
		Help:      "Duration of finished tasks",
		Namespace: Namespace,
		Buckets:   prometheus.ExponentialBuckets(0.1, 4, 10),
	},
	[]string{LabelKind, LabelStatus},
)

var Jobs = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameJobs,
		Help:      "Finished jobs by final status",
		Namespace: Namespace,
	},
	[]string{LabelCorpus, LabelStatus},
)
