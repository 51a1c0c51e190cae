package report

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

const (
	dateLayout     = "02/01/2006"
	dateTimeLayout = "02/01/2006 15:04"
	rule           = "------------------------------------------------------------"
)

func RenderDay(sum DaySummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "CONSULTATION REPORT - %s\n%s\n\n", sum.Stats.Date.Format(dateLayout), rule)

	b.WriteString("SUMMARY:\n")
	fmt.Fprintf(&b, "  Total appointments: %d\n", sum.Stats.Total)
	if p := sum.Percentages; p != nil {
		fmt.Fprintf(&b, "  Completed: %d (%d%%)\n", sum.Stats.Completed, p.Completed)
		fmt.Fprintf(&b, "  Cancelled: %d (%d%%)\n", sum.Stats.Cancelled, p.Cancelled)
		fmt.Fprintf(&b, "  Pending: %d (%d%%)\n", sum.Stats.Scheduled, p.Pending)
		fmt.Fprintf(&b, "  Occupancy: %d%%\n", p.Occupancy)
	}
	b.WriteString("\n")

	writeLines(&b, "COMPLETED", sum.Completed)
	writeLines(&b, "CANCELLED", sum.Cancelled)
	writeLines(&b, "PENDING", sum.Pending)

	if len(sum.Providers) > 0 {
		b.WriteString("BY PROVIDER:\n")
		tw := table.NewWriter()
		tw.AppendHeader(table.Row{"Provider", "Total", "Completed", "Cancelled", "Pending"})
		for _, p := range sum.Providers {
			tw.AppendRow(table.Row{p.ProviderName, p.Total, p.Completed, p.Cancelled, p.Pending})
		}
		b.WriteString(tw.Render())
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nGenerated at: %s\n", sum.GeneratedAt.Format(dateTimeLayout))
	return b.String()
}

func writeLines(b *strings.Builder, title string, lines []Line) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(b, "%s (%d):\n", title, len(lines))
	for _, l := range lines {
		fmt.Fprintf(b, "  [%s] %s - %s\n", l.ScheduledAt.Format("15:04"), l.ProviderName, l.PatientName)
		if l.Reason != "" {
			fmt.Fprintf(b, "    Reason: %s\n", l.Reason)
		}
	}
	b.WriteString("\n")
}

func RenderCancellations(sum CancellationSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "CANCELLED CONSULTATIONS\n%s\n\n", rule)
	fmt.Fprintf(&b, "Period: %s to %s\n", sum.Start.Format(dateLayout), sum.End.Format(dateLayout))
	fmt.Fprintf(&b, "Total cancellations: %d\n\n", len(sum.Items))

	if len(sum.Items) == 0 {
		b.WriteString("No cancellations in this period.\n")
	} else {
		b.WriteString(rule + "\n")
		for _, c := range sum.Items {
			fmt.Fprintf(&b, "ID: %s\n", c.AppointmentID)
			fmt.Fprintf(&b, "Scheduled for: %s\n", c.ScheduledAt.Format(dateTimeLayout))
			fmt.Fprintf(&b, "Patient: %s\n", c.PatientName)
			if c.Specialty != "" {
				fmt.Fprintf(&b, "Provider: %s (%s)\n", c.ProviderName, c.Specialty)
			} else {
				fmt.Fprintf(&b, "Provider: %s\n", c.ProviderName)
			}
			fmt.Fprintf(&b, "Reason: %s\n", c.Reason)
			fmt.Fprintf(&b, "Cancelled at: %s\n", c.CancelledAt.Format(dateTimeLayout))
			b.WriteString(rule + "\n")
		}
	}

	fmt.Fprintf(&b, "\nGenerated at: %s\n", sum.GeneratedAt.Format(dateTimeLayout))
	return b.String()
}
