// Package report writes batch summaries as CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nvandessel/moideas/internal/batch"
)

// Header is the CSV header row: run count, every configuration field in
// declaration order, then the aggregates.
var Header = []string{
	"sim_count",
	"agents_n",
	"p_start_belief",
	"rounds_of_play",
	"mrb",
	"tw",
	"atrophy_p",
	"min_bar",
	"max_bar",
	"output_p",
	"disinfo_agents_n",
	"disinfo_broadcast_capability",
	"av_prop_true",
	"no_beliefs_n",
}

// Row renders one summary. An undefined average is an empty cell.
func Row(s batch.Summary) []string {
	c := s.Config
	avg := ""
	if s.AvgPropTrue != nil {
		avg = formatFloat(*s.AvgPropTrue)
	}
	return []string{
		strconv.Itoa(s.SimCount),
		strconv.Itoa(c.AgentsN),
		formatFloat(c.PStartBelief),
		strconv.Itoa(c.RoundsOfPlay),
		strconv.Itoa(c.MRB),
		formatFloat(c.TW),
		formatFloat(c.AtrophyP),
		formatFloat(c.MinBAR),
		formatFloat(c.MaxBAR),
		formatFloat(c.OutputP),
		strconv.Itoa(c.DisinfoAgentsN),
		strconv.Itoa(c.DisinfoBroadcastCapability),
		avg,
		strconv.Itoa(s.NoBeliefRuns),
	}
}

// Write writes summaries to w, preceded by the header when withHeader is set.
func Write(w io.Writer, summaries []batch.Summary, withHeader bool) error {
	cw := csv.NewWriter(w)
	if withHeader {
		if err := cw.Write(Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, s := range summaries {
		if err := cw.Write(Row(s)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// AppendFile appends summaries to the CSV at path, creating it and its
// directory if needed. The header is written only when the file is empty.
func AppendFile(path string, summaries []batch.Summary) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat report: %w", err)
	}

	if err := Write(f, summaries, info.Size() == 0); err != nil {
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
