package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"steprt/internal/asyncrt"
	"steprt/internal/host"
)

type summary struct {
	Scenario  string
	Mode      string
	Recorded  string
	Result    host.Result
	Snapshot  asyncrt.Snapshot
	Completed int
	Total     int
	Failed    int
}

var (
	summaryOK    = color.New(color.FgGreen, color.Bold)
	summaryFail  = color.New(color.FgRed, color.Bold)
	summaryLabel = color.New(color.Faint)
)

func printSummary(out io.Writer, s summary) {
	p := message.NewPrinter(language.English)

	status := summaryOK.Sprint("ok")
	if s.Failed > 0 || s.Completed < s.Total {
		status = summaryFail.Sprint("incomplete")
		if s.Failed > 0 {
			status = summaryFail.Sprint("failed")
		}
	}
	fmt.Fprintf(out, "%s %s (%s)\n", status, s.Scenario, s.Mode)
	p.Fprintf(out, "  %s %d/%d done, %d failed\n", summaryLabel.Sprint("tasks:  "), s.Completed, s.Total, s.Failed)
	p.Fprintf(out, "  %s %d, stopped by %s\n", summaryLabel.Sprint("frames: "), s.Result.Frames, s.Result.Reason)
	p.Fprintf(out, "  %s %v\n", summaryLabel.Sprint("virtual:"), s.Snapshot.Now)
	if s.Snapshot.Parked > 0 || s.Snapshot.Timers > 0 {
		p.Fprintf(out, "  %s %d parked, %d timers pending\n", summaryLabel.Sprint("left:   "), s.Snapshot.Parked, s.Snapshot.Timers)
	}
	if s.Recorded != "" {
		fmt.Fprintf(out, "  %s %s\n", summaryLabel.Sprint("record: "), s.Recorded)
	}
}
