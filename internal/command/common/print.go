package common

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/bornholm/corpus-indexer/internal/http/handler/api"
	"github.com/dustin/go-humanize"
)

func PrintJob(w io.Writer, job *api.Job) {
	fmt.Fprintf(w, "Job:     %s\n", job.ID)
	fmt.Fprintf(w, "Corpus:  %s\n", job.Corpus)
	fmt.Fprintf(w, "Target:  %s/%s\n", job.Target.Server, job.Target.Name)
	fmt.Fprintf(w, "Status:  %s\n", job.Status)
	fmt.Fprintf(w, "Created: %s\n\n", job.CreatedAt.Format(time.RFC3339))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tKIND\tINDEX\tSTATUS\tINDEXED\tFAILED\tUPDATED\tDURATION\tERROR")

	for _, t := range job.Tasks {
		duration := "-"
		if t.StartedAt != nil && t.FinishedAt != nil {
			duration = t.FinishedAt.Sub(*t.StartedAt).Round(time.Millisecond).String()
		}

		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Position, t.Kind, t.Index.Server+"/"+t.Index.Name, t.Status,
			humanize.Comma(t.Stats.DocumentsIndexed), humanize.Comma(t.Stats.DocumentsFailed), humanize.Comma(t.Stats.DocumentsUpdated),
			duration, t.Error,
		)
	}

	tw.Flush()
}

func PrintJobs(w io.Writer, jobs []*api.Job) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCORPUS\tTARGET\tSTATUS\tTASKS\tCREATED")

	for _, j := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			j.ID, j.Corpus, j.Target.Server+"/"+j.Target.Name, j.Status, len(j.Tasks), humanize.Time(j.CreatedAt),
		)
	}

	tw.Flush()
}

func PrintIndices(w io.Writer, indices []api.Index) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVER\tNAME\tAVAILABLE")

	for _, i := range indices {
		fmt.Fprintf(tw, "%s\t%s\t%v\n", i.Server, i.Name, i.Available)
	}

	tw.Flush()
}
