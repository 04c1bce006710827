// Command patchc compiles and runs patch files.
//
// Usage:
//
//	patchc compile scene.yaml            # Compile and print the program
//	patchc run -frames 10 scene.yaml     # Execute frames, print sink values
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/glowkit/patchc"
	"github.com/glowkit/patchc/block"
	"github.com/glowkit/patchc/blocks"
	"github.com/glowkit/patchc/patch"
	"github.com/glowkit/patchc/runtime"
	"github.com/glowkit/patchc/sched"
)

const patchcVersion = "0.1.0-dev"

func main() {
	root := &cobra.Command{
		Use:           "patchc",
		Short:         "patchc compiles node-graph patches into frame programs",
		Version:       patchcVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCompileCmd(), newRunCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "patchc:", err)
		os.Exit(1)
	}
}

func newRegistry() (*block.Registry, error) {
	reg := block.NewRegistry()
	if err := blocks.Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func compileFile(path string) (*sched.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := patch.LoadYAML(data)
	if err != nil {
		return nil, err
	}
	reg, err := newRegistry()
	if err != nil {
		return nil, err
	}
	return patchc.CompileWithOptions(reg, p, patchc.CompileOptions{Validate: true})
}

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <patch.yaml>",
		Short: "Compile a patch and print the scheduled program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := compileFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), sched.Format(prog))
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	var frames int
	var fps float64

	cmd := &cobra.Command{
		Use:   "run <patch.yaml>",
		Short: "Execute frames and print each render sink's inputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := compileFile(args[0])
			if err != nil {
				return err
			}

			st := runtime.NewState(prog)
			pool := runtime.NewPool()
			out := cmd.OutOrStdout()

			for f := 0; f < frames; f++ {
				ts := float64(f) * 1000 / fps
				runtime.ExecuteFrame(prog, st, pool, ts)

				fmt.Fprintf(out, "frame %d t=%.1fms\n", f, ts)
				for _, sink := range prog.IR.Sinks {
					names := make([]string, 0, len(sink.Inputs))
					for name := range sink.Inputs {
						names = append(names, name)
					}
					sort.Strings(names)
					for _, name := range names {
						vals, _ := runtime.SinkInput(prog, pool, sink.Block, name)
						fmt.Fprintf(out, "  %s.%s = %v\n", sink.Block, name, vals)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&frames, "frames", 1, "number of frames to execute")
	cmd.Flags().Float64Var(&fps, "fps", 60, "frame rate used to derive timestamps")
	return cmd
}
