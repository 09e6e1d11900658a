package main

import (
	"fmt"
	"math"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rhartert/microsolve/internal/dimacs"
	"github.com/rhartert/microsolve/internal/sat"
)

var (
	flagCPUProfile  string
	flagMemProfile  string
	flagGzip        bool
	flagMaxConflict int64
	flagAssume      []int
	flagVerbose     bool
)

func main() {
	root := &cobra.Command{
		Use:   "microsolve INSTANCE.cnf",
		Short: "a compact CDCL satisfiability solver",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}

	root.Flags().StringVar(&flagCPUProfile, "cpuprofile", "", "write a CPU profile to this file")
	root.Flags().StringVar(&flagMemProfile, "memprofile", "", "write a heap profile to this file")
	root.Flags().BoolVar(&flagGzip, "gzip", false, "the instance file is gzip-compressed")
	root.Flags().Int64Var(&flagMaxConflict, "max-conflicts", math.MaxInt64, "give up and report unknown after this many learned clauses")
	root.Flags().IntSliceVar(&flagAssume, "assume", nil, "assume these literals before solving (repeatable, signed DIMACS literals)")
	root.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "log search progress every 10000 learned clauses")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log := logrus.New()
	if !flagVerbose {
		log.SetLevel(logrus.WarnLevel)
	}

	if flagCPUProfile != "" {
		f, err := os.Create(flagCPUProfile)
		if err != nil {
			return fmt.Errorf("could not create cpu profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start cpu profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	inst, err := dimacs.Load(args[0], flagGzip, sat.DefaultOptions)
	if err != nil {
		return fmt.Errorf("could not load instance: %w", err)
	}

	for _, a := range flagAssume {
		inst.Solver.Assume(sat.Literal(a))
	}

	log.WithFields(logrus.Fields{
		"variables": inst.Variables,
		"clauses":   inst.Clauses,
	}).Info("instance loaded")

	start := time.Now()
	status, err := solveWithProgress(inst.Solver, log)
	elapsed := time.Since(start)
	if err != nil {
		return fmt.Errorf("solver error: %w", err)
	}

	switch status {
	case sat.True:
		fmt.Println("s SATISFIABLE")
		printModel(inst.Solver)
	case sat.False:
		fmt.Println("s UNSATISFIABLE")
		if fc := inst.Solver.FinalConflict(); len(fc) > 0 {
			printFinalConflict(fc)
		}
	default:
		fmt.Println("s UNKNOWN")
	}

	fmt.Printf("c mem used: %d cells, conflicts: %d (%.2f /sec), max lemmas: %d, restarts: %d, learned: %d, time: %f sec\n",
		inst.Solver.MemUsed(), inst.Solver.TotalConflicts, float64(inst.Solver.TotalConflicts)/elapsed.Seconds(),
		inst.Solver.MaxLemmas(), inst.Solver.TotalRestarts, inst.Solver.TotalLearned, elapsed.Seconds())

	if flagMemProfile != "" {
		f, err := os.Create(flagMemProfile)
		if err != nil {
			return fmt.Errorf("could not create mem profile: %w", err)
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return fmt.Errorf("could not write mem profile: %w", err)
		}
	}

	return nil
}

// solveWithProgress calls Solver.Solve in slices of at most 10000 learned
// clauses so it can log search progress between slices without the core
// needing to know about a logger (spec §10.2).
func solveWithProgress(s *sat.Solver, log *logrus.Logger) (sat.LBool, error) {
	const reportEvery = 10000
	remaining := flagMaxConflict
	for {
		slice := int64(reportEvery)
		if remaining < slice {
			slice = remaining
		}
		status, err := s.Solve(slice)
		if err != nil {
			return sat.Unknown, err
		}
		if status != sat.Unknown {
			return status, nil
		}
		remaining -= slice
		log.WithFields(logrus.Fields{
			"conflicts": s.TotalConflicts,
			"restarts":  s.TotalRestarts,
			"learned":   s.NumLearnts(),
			"mem_used":  s.MemUsed(),
		}).Info("search progress")
		if remaining <= 0 {
			return sat.Unknown, nil
		}
	}
}

func printModel(s *sat.Solver) {
	fmt.Print("v")
	for v := int32(1); v <= s.NumVariables(); v++ {
		if s.GetModel(v) {
			fmt.Printf(" %d", v)
		} else {
			fmt.Printf(" -%d", v)
		}
	}
	fmt.Println(" 0")
}

func printFinalConflict(lits []sat.Literal) {
	fmt.Print("c final conflict:")
	for _, l := range lits {
		fmt.Printf(" %d", int32(l))
	}
	fmt.Println()
}
