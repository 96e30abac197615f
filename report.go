package ingest

import (
	"fmt"
	"strings"
)

// Render formats the batch report as operator-readable text, suitable
// for the ingest log tail and the SES report mail body.
func (r *BatchReport) Render() []byte {
	lines := []string{
		"slack-ingest batch report",
		fmt.Sprintf("target date: %s", r.Oldest.Format("2006-01-02")),
		fmt.Sprintf("window: oldest=%s latest=%s", slackTimestamp(r.Oldest), slackTimestamp(r.Latest)),
		fmt.Sprintf("output: %s", r.OutDir),
		fmt.Sprintf("started: %s", r.StartedAt.Format("2006-01-02 15:04:05")),
		fmt.Sprintf("finished: %s", r.FinishedAt.Format("2006-01-02 15:04:05")),
		"",
	}

	for _, res := range r.Results {
		status := "ok"
		detail := ""
		if res.Err != nil {
			status = "FAILED"
			detail = " error=" + res.Err.Error()
		}
		lines = append(lines, fmt.Sprintf(
			"%-24s %-6s pages=%d items=%d%s",
			res.Endpoint, status, res.Pages, res.Items, detail,
		))
	}

	if failed := r.FailedEndpoints(); len(failed) > 0 {
		lines = append(lines, "", fmt.Sprintf("result: partial failure (%s)", strings.Join(failed, ", ")))
	} else {
		lines = append(lines, "", "result: success")
	}

	return []byte(strings.Join(lines, "\n") + "\n")
}
