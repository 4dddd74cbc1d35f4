package heap

import (
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/heapkit/internal/layout"
)

// reportPrinter renders counters with locale-aware digit grouping so multi-
// megabyte figures stay readable in diagnostic dumps.
var reportPrinter = message.NewPrinter(language.English)

// Report formats all counters plus the fragmentation ratio into a
// human-readable block. Purely derived, no state mutation.
func (h *Heap) Report() string {
	s := h.stats
	totalFree, _ := h.freeSpan()

	var sb strings.Builder
	p := func(format string, args ...any) {
		reportPrinter.Fprintf(&sb, format, args...)
	}

	p("=== Heap Report ===\n")
	p("Arena size:          %d bytes (%d pages)\n", h.arenaSize, h.arenaSize/layout.PageSize)
	p("Growth frontier:     0x%X\n", h.frontier)
	p("Allocations:         %d total, %d active, %d failed\n",
		s.TotalAllocations, s.ActiveAllocations, s.FailedAllocations)
	p("Deallocations:       %d total, %d invalid ignored\n",
		s.TotalDeallocations, s.IgnoredFrees)
	p("Bytes:               %d allocated, %d freed, %d in use\n",
		s.BytesAllocated, s.BytesFreed, s.CurrentUsage)
	p("Free space:          %d bytes, largest block %d bytes\n",
		totalFree, s.LargestFreeBlock)
	p("Fragmentation:       %.1f%%\n", h.FragmentationRatio()*100)
	p("Splits / coalesces:  %d / %d\n", s.Splits, s.Coalesces)
	p("Growth:              %d calls, %d bytes appended\n", s.GrowCalls, s.GrowBytes)
	return sb.String()
}

// PrintReport writes the formatted report to standard output and mirrors it
// to the attached logger. Side-effecting convenience for diagnostics.
func (h *Heap) PrintReport() {
	report := h.Report()
	os.Stdout.WriteString(report)
	h.logger.Info("heap report", "report", report)
}
