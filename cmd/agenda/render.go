package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/tripsync/planner/internal/dashboard"
	"github.com/tripsync/planner/internal/domain"
)

// render prints one frame of the composed agenda.
func render(w io.Writer, snap dashboard.Snapshot, loc *time.Location) {
	fmt.Fprintf(w, "\n%s\n", heading(snap))

	if len(snap.Calendar) == 0 {
		fmt.Fprintln(w, "  (no activities match the current view)")
	} else {
		tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
		for _, it := range snap.Calendar {
			fmt.Fprintf(tw, "  %s\t[%s]\t%s\t%s\n", when(it.PrimaryDate, loc), it.Category, it.Activity.Name, annotations(it))
		}
		tw.Flush()
	}

	if len(snap.Proposals) > 0 {
		fmt.Fprintln(w, "\nProposals")
		tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
		for _, it := range snap.Proposals {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", it.Activity.Name, timeOptions(it.Activity, loc), annotations(it))
		}
		tw.Flush()
	}
	fmt.Fprintln(w)
}

func heading(snap dashboard.Snapshot) string {
	var b strings.Builder
	b.WriteString(snap.Trip.Name)
	if snap.Trip.StartDate != nil && snap.Trip.EndDate != nil {
		fmt.Fprintf(&b, " (%s to %s)", snap.Trip.StartDate.Format("Jan 2"), snap.Trip.EndDate.Format("Jan 2"))
	}
	fmt.Fprintf(&b, " | %s view | people: %s | statuses: %s",
		snap.View,
		strings.Join(snap.Filter.People, ","),
		strings.Join(snap.Filter.Statuses, ","))
	return b.String()
}

func when(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "unscheduled"
	}
	return t.In(loc).Format("Mon Jan 2 15:04")
}

// annotations summarizes counts and the viewer's own standing on one line.
func annotations(it dashboard.Item) string {
	var parts []string
	c := it.Activity.Counts
	if it.Activity.MaxCapacity != nil {
		parts = append(parts, fmt.Sprintf("%d/%d going", c.Accepted, *it.Activity.MaxCapacity))
	} else if c.Accepted > 0 {
		parts = append(parts, fmt.Sprintf("%d going", c.Accepted))
	}
	if c.Waitlisted > 0 {
		parts = append(parts, fmt.Sprintf("%d waitlisted", c.Waitlisted))
	}
	if it.HasInvite {
		parts = append(parts, "you: "+string(it.ViewerStatus))
	}
	if it.Personal {
		parts = append(parts, "personal")
	}
	if it.InFlight {
		parts = append(parts, "updating")
	}
	return strings.Join(parts, ", ")
}

func timeOptions(a domain.Activity, loc *time.Location) string {
	if len(a.TimeOptions) == 0 {
		return "no times proposed"
	}
	opts := make([]string, len(a.TimeOptions))
	for i, t := range a.TimeOptions {
		opts[i] = t.In(loc).Format("Mon Jan 2 15:04")
	}
	return strings.Join(opts, " / ")
}
