package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
)

var (
	stressArena    int
	stressHeadroom int
	stressOps      int
	stressSeed     int64
	stressMaxSize  int
	stressStrict   bool
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVar(&stressArena, "arena", 1<<20, "Initial arena size in bytes")
	cmd.Flags().IntVar(&stressHeadroom, "headroom", 64, "Extra pages available for growth")
	cmd.Flags().IntVar(&stressOps, "ops", 100_000, "Number of random operations")
	cmd.Flags().Int64Var(&stressSeed, "seed", 0, "RNG seed (0 = time-based)")
	cmd.Flags().IntVar(&stressMaxSize, "max-size", 4096, "Largest allocation size")
	cmd.Flags().BoolVar(&stressStrict, "strict-free", false, "Fail on invalid frees")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress",
		Short: "Run a randomized alloc/free workload",
		Long: `The stress command drives the allocator with a randomized mix of
allocations and frees, then verifies arena integrity and reports statistics.

Example:
  heapctl stress --arena 1048576 --ops 250000
  heapctl stress --seed 42 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
}

// stressResult is the JSON shape emitted with --json.
type stressResult struct {
	Seed          int64      `json:"seed"`
	Operations    int        `json:"operations"`
	Duration      string     `json:"duration"`
	Intact        bool       `json:"intact"`
	Fragmentation float64    `json:"fragmentation"`
	ArenaSize     int        `json:"arenaSize"`
	Stats         heap.Stats `json:"stats"`
}

func runStress() error {
	seed := stressSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var opts []heap.Option
	if stressStrict {
		opts = append(opts, heap.WithStrictFree())
	}

	h, release, err := heap.NewSlab(stressArena, stressHeadroom, opts...)
	if err != nil {
		return err
	}
	defer release()

	printVerbose("arena %d bytes, headroom %d pages, seed %d\n",
		stressArena, stressHeadroom, seed)

	rng := rand.New(rand.NewSource(seed))
	aligns := []int{8, 8, 16, 32, 64}
	live := make([]heap.Ref, 0, 4096)
	start := time.Now()

	for op := 0; op < stressOps; op++ {
		if rng.Intn(3) != 0 || len(live) == 0 {
			size := 1 + rng.Intn(stressMaxSize)
			ref, _, allocErr := h.Allocate(size, aligns[rng.Intn(len(aligns))])
			if allocErr == nil {
				live = append(live, ref)
			} else if len(live) > 0 {
				// Out of space: drain a batch and keep churning.
				printVerbose("op %d: exhausted, draining %d blocks\n", op, len(live)/2)
				for _, ref := range live[:len(live)/2] {
					if freeErr := h.Deallocate(ref); freeErr != nil {
						return freeErr
					}
				}
				live = live[len(live)/2:]
			}
		} else {
			i := rng.Intn(len(live))
			if freeErr := h.Deallocate(live[i]); freeErr != nil {
				return freeErr
			}
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
		}
	}
	elapsed := time.Since(start)

	intact := h.VerifyIntegrity()
	result := stressResult{
		Seed:          seed,
		Operations:    stressOps,
		Duration:      elapsed.String(),
		Intact:        intact,
		Fragmentation: h.FragmentationRatio(),
		ArenaSize:     h.ArenaSize(),
		Stats:         h.Stats(),
	}

	if jsonOut {
		if err := printJSON(result); err != nil {
			return err
		}
	} else {
		printInfo("%d ops in %s (%d live blocks at end)\n", stressOps, elapsed, len(live))
		h.PrintReport()
	}

	if !intact {
		return fmt.Errorf("integrity check failed: %w", h.CheckInvariants())
	}
	return nil
}
