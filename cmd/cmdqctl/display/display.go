// Package display formats cmdqctl output.
//
// Every function honours the global --output flag: table output goes through
// text/tabwriter, JSON output is the API payload re-encoded with indentation.
// Verbose mode adds the less frequently needed columns and fields.
package display

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/concave-dev/cmdq/cmd/cmdqctl/client"
	"github.com/concave-dev/cmdq/cmd/cmdqctl/config"
	"github.com/concave-dev/cmdq/internal/logging"
	"github.com/concave-dev/cmdq/internal/queue"
	"github.com/dustin/go-humanize"
)

// out is where all display functions write
var out io.Writer = os.Stdout

// encodeJSON writes v as indented JSON
func encodeJSON(v any) {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		logging.Error("Failed to encode JSON: %v", err)
		fmt.Fprintln(out, "Error encoding JSON output")
	}
}

// DisplayHealth prints the daemon health summary
func DisplayHealth(health *client.HealthResponse) {
	if config.Global.Output == "json" {
		encodeJSON(health)
		return
	}

	processing := "held"
	if health.QueueStarted {
		processing = "started"
	}

	fmt.Fprintf(out, "Daemon Health:\n")
	fmt.Fprintf(out, "  Status:      %s\n", health.Status)
	fmt.Fprintf(out, "  Version:     %s\n", health.Version)
	fmt.Fprintf(out, "  Uptime:      %s\n", health.Uptime)
	fmt.Fprintf(out, "  Processing:  %s\n", processing)
	fmt.Fprintf(out, "  Pending:     %s\n", humanize.Comma(int64(health.QueueLength)))
	if config.Global.Verbose && !health.Timestamp.IsZero() {
		fmt.Fprintf(out, "  Checked At:  %s\n", health.Timestamp.Format(time.RFC3339))
	}
}

// DisplayStats prints the queue counters
func DisplayStats(stats *queue.Stats) {
	if config.Global.Output == "json" {
		encodeJSON(stats)
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	processing := "held"
	if stats.Started {
		processing = "started"
	}

	lastDispatch := "never"
	if !stats.LastDispatchAt.IsZero() {
		lastDispatch = humanize.Time(stats.LastDispatchAt)
	}

	fmt.Fprintln(w, "PROCESSING\tPENDING\tENQUEUED\tBATCHES\tFAILED\tLAST DISPATCH")
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		processing,
		humanize.Comma(int64(stats.Length)),
		humanize.Comma(stats.Enqueued),
		humanize.Comma(stats.BatchesDispatched),
		humanize.Comma(stats.BatchesFailed),
		lastDispatch)

	if config.Global.Verbose {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Debounce:\t%s\n", stats.DebounceTime)
		fmt.Fprintf(w, "Max Commands:\t%d\n", stats.MaxProcessedCommands)
		fmt.Fprintf(w, "Callbacks Delivered:\t%s\n", humanize.Comma(stats.CallbacksDelivered))
		if stats.LastBatchSize > 0 {
			fmt.Fprintf(w, "Last Batch Size:\t%d\n", stats.LastBatchSize)
		}
		if stats.LastError != "" {
			fmt.Fprintf(w, "Last Error:\t%s\n", stats.LastError)
		}
	}
}

// DisplayEnqueue prints the outcome of an enqueue, including the command's
// result when the request waited for it
func DisplayEnqueue(resp *client.EnqueueResponse) {
	if config.Global.Output == "json" {
		encodeJSON(resp)
		return
	}

	if resp.Status != "completed" {
		fmt.Fprintf(out, "Command %s %s (%s pending)\n", resp.Name, resp.Status, humanize.Comma(int64(resp.QueueLength)))
		return
	}

	fmt.Fprintf(out, "Command %s completed\n", resp.Name)
	if len(resp.Result) == 0 {
		return
	}

	keys := make([]string, 0, len(resp.Result))
	for k := range resp.Result {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "KEY\tVALUE")
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%s\n", k, resp.Result[k])
	}
}

// DisplayQueueAction prints the outcome of process or start
func DisplayQueueAction(action string, resp *client.QueueActionResponse) {
	if config.Global.Output == "json" {
		encodeJSON(resp)
		return
	}

	if config.Global.Verbose {
		fmt.Fprintf(out, "Queue %s: %s (%s pending)\n", action, resp.Status, humanize.Comma(int64(resp.QueueLength)))
		return
	}
	fmt.Fprintf(out, "Queue %s: %s\n", action, resp.Status)
}
