package flood

import (
	"fmt"
	"strings"
	"time"
)

// Report は各ワーカーの結果を個別に整形する
// ワーカー間の集計は行わない
func Report(cfg Config, stats []RunStats) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `
================================================================================
                         FLOOD REPORT: %s
================================================================================

CONFIGURATION
-------------
  Server:               %s
  Workers:              %d
  Requests per worker:  %d
  Commands per request: %d
  All set:              %v
  Key length:           %s
  Commands:             %s
  Rate limit:           %s

WORKERS
-------
`,
		cfg.Name,
		cfg.Addr,
		cfg.Workers,
		cfg.Requests,
		cfg.CommandsPerRequest,
		cfg.AllSet,
		formatKeyLen(cfg.KeyspaceLen),
		formatCommands(cfg.Commands),
		formatRate(cfg.Rate),
	)

	for _, s := range stats {
		sb.WriteString(formatWorker(s))
		sb.WriteByte('\n')
	}

	sb.WriteString("\n================================================================================")
	return sb.String()
}

func formatWorker(s RunStats) string {
	line := fmt.Sprintf("  worker-%-3d requests=%-8d bytes_sent=%-12d wall=%-10v wait=%-10v avg=%-10v p99=%v",
		s.WorkerID,
		s.Requests,
		s.BytesSent,
		s.Wall.Round(time.Millisecond),
		s.ResponseWait.Round(time.Millisecond),
		s.AvgLatency.Round(time.Microsecond),
		s.P99Latency.Round(time.Microsecond),
	)
	if s.Err != nil {
		line += "\n    FAILED: " + s.Err.Error()
	}
	return line
}

func formatRate(r float64) string {
	if r <= 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%.0f req/s per worker", r)
}

func formatKeyLen(n int) string {
	if n <= 0 {
		return "random (1-8)"
	}
	return fmt.Sprintf("%d", n)
}

func formatCommands(cmds []string) string {
	if len(cmds) == 0 {
		return "all"
	}
	return strings.Join(cmds, ",")
}
