package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lcalzada-xor/pagetap/pkg/models"
)

// Report is one page's drained evidence surface: everything the probes
// collected during a scan pass.
type Report struct {
	ScanID         string                 `json:"scan_id"`
	URL            string                 `json:"url"`
	NetworkEvents  []models.NetworkEvent  `json:"network_events"`
	Markers        []models.DOMMarker     `json:"dom_markers"`
	Sinks          []models.Sink          `json:"sinks"`
	CaptureRecords []models.CaptureRecord `json:"capture_records,omitempty"`
}

// Format returns the formatted report string based on the selected format
func Format(rep Report, format string) string {
	switch format {
	case "json":
		out, err := json.Marshal(rep)
		if err != nil {
			return fmt.Sprintf("{\"error\":\"failed to marshal report: %v\"}", err)
		}
		return string(out)

	case "jsonl":
		// One sink per line, for piping into other tools.
		var sb strings.Builder
		for _, s := range rep.Sinks {
			line, err := json.Marshal(s)
			if err != nil {
				continue
			}
			sb.Write(line)
			sb.WriteByte('\n')
		}
		return strings.TrimRight(sb.String(), "\n")

	case "human":
		// Human-readable format (Purple Gothic Theme)
		cPurple := "\x1b[38;5;129m"
		cLightPurple := "\x1b[38;5;141m"
		cDarkPurple := "\x1b[38;5;93m"
		cRed := "\x1b[38;5;196m"
		cOrange := "\x1b[38;5;214m"
		cReset := "\x1b[0m"

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("\n%s[+] Scan Pass Complete%s\n", cPurple, cReset))
		sb.WriteString(fmt.Sprintf("    %sURL:%s      %s%s%s\n", cDarkPurple, cReset, cLightPurple, rep.URL, cReset))
		sb.WriteString(fmt.Sprintf("    %sScan ID:%s  %s%s%s\n", cDarkPurple, cReset, cLightPurple, rep.ScanID, cReset))
		sb.WriteString(fmt.Sprintf("    %sEvidence:%s %s%d network, %d markers, %d sinks%s\n",
			cDarkPurple, cReset, cLightPurple, len(rep.NetworkEvents), len(rep.Markers), len(rep.Sinks), cReset))

		if len(rep.Sinks) > 0 {
			sb.WriteString(fmt.Sprintf("\n    %sSinks:%s\n", cDarkPurple, cReset))
			for _, s := range rep.Sinks {
				typeColor := cOrange
				if s.Type == models.SinkNetwork {
					typeColor = cRed
				}
				sb.WriteString(fmt.Sprintf("      %s[%s]%s %s%s%s\n", typeColor, s.Type, cReset, cLightPurple, s.Location, cReset))
				sb.WriteString(fmt.Sprintf("             %sValue:%s %s\n", cDarkPurple, cReset, clipLine(s.Value)))
				if s.Extra != "" {
					sb.WriteString(fmt.Sprintf("             %sExtra:%s %s\n", cDarkPurple, cReset, s.Extra))
				}
			}
		}

		if len(rep.NetworkEvents) > 0 {
			sb.WriteString(fmt.Sprintf("\n    %sNetwork:%s\n", cDarkPurple, cReset))
			for _, ev := range rep.NetworkEvents {
				statusColor := cLightPurple
				if ev.Status >= 400 {
					statusColor = cRed
				} else if ev.Status >= 300 {
					statusColor = cOrange
				}
				sb.WriteString(fmt.Sprintf("      %s%-4s%s %s %s%d%s (%dms)\n",
					cLightPurple, ev.Method, cReset, ev.URL, statusColor, ev.Status, cReset, ev.DurationMs))
			}
		}
		return sb.String()

	default:
		// Default to jsonl
		return Format(rep, "jsonl")
	}
}

func clipLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 120 {
		return s[:117] + "..."
	}
	return s
}
