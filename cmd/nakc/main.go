package main

import (
	"fmt"
	"io"
	"os"

	"github.com/nouveau-go/nakcore/pkg/calcdeps"
	"github.com/nouveau-go/nakcore/pkg/debugcfg"
	"github.com/nouveau-go/nakcore/pkg/ir"
	"github.com/nouveau-go/nakcore/pkg/postsched"
	"github.com/nouveau-go/nakcore/pkg/smcap"
	"github.com/nouveau-go/nakcore/pkg/spill"
	"github.com/nouveau-go/nakcore/pkg/ssarepair"
	"github.com/spf13/cobra"
)

func main() {
	var smVersion uint8
	var inputPath string
	var outputPath string

	rootCmd := &cobra.Command{
		Use:   "nakc",
		Short: "nakcore driver — runs individual compiler-core passes over a textual IR function",
	}
	rootCmd.PersistentFlags().Uint8Var(&smVersion, "sm", 80, "shader model version (70, 75, 80, 89)")
	rootCmd.PersistentFlags().StringVar(&inputPath, "input", "-", "input IR file (- for stdin)")
	rootCmd.PersistentFlags().StringVar(&outputPath, "output", "-", "output IR file (- for stdout)")

	var serial bool
	calcDepsCmd := &cobra.Command{
		Use:   "calc-deps",
		Short: "run C4: assign dependency scoreboards and delays",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPass(inputPath, outputPath, smVersion, func(shader *ir.Shader) {
				calcdeps.CalcInstrDeps(shader, serial)
			})
		},
	}
	calcDepsCmd.Flags().BoolVar(&serial, "serial", false, "force the conservative per-instruction scoreboard fallback")

	schedCmd := &cobra.Command{
		Use:   "sched",
		Short: "run C5: list-schedule every block post-register-allocation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPass(inputPath, outputPath, smVersion, func(shader *ir.Shader) {
				postsched.SchedShader(shader)
			})
		},
	}

	repairCmd := &cobra.Command{
		Use:   "repair-ssa",
		Short: "run C6: restore SSA form after a pass that left multiple reaching definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPass(inputPath, outputPath, smVersion, func(shader *ir.Shader) {
				for _, fn := range shader.Functions {
					ssarepair.Repair(fn)
				}
			})
		},
	}

	var spillFile string
	var spillLimit uint32
	var nakDebug string
	spillCmd := &cobra.Command{
		Use:   "spill",
		Short: "run C7: keep one register file's live count at or below a limit by spilling/filling",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := parseRegFileFlag(spillFile)
			if err != nil {
				return err
			}
			dbg := debugcfg.Parse(nakDebug)
			return runPass(inputPath, outputPath, smVersion, func(shader *ir.Shader) {
				for _, fn := range shader.Functions {
					spill.Values(fn, file, spillLimit, &shader.Info, dbg)
				}
				fmt.Fprintf(os.Stderr,
					"spills: %d to reg, %d to mem; fills: %d from reg, %d from mem\n",
					shader.Info.NumSpillsToReg, shader.Info.NumSpillsToMem,
					shader.Info.NumFillsFromReg, shader.Info.NumFillsFromMem)
			})
		},
	}
	spillCmd.Flags().StringVar(&spillFile, "file", "GPR", "register file to keep under limit (GPR, UGPR, Pred, UPred, Bar)")
	spillCmd.Flags().Uint32Var(&spillLimit, "limit", 64, "maximum live count of --file permitted at any program point")
	spillCmd.Flags().StringVar(&nakDebug, "debug", "", "comma-separated debug flags (serial,cycles,annotate,print), same vocabulary as NAK_DEBUG")

	rootCmd.AddCommand(calcDepsCmd, schedCmd, repairCmd, spillCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runPass reads a function from inputPath, builds a one-function shader
// targeting sm, runs pass over it, and writes the resulting textual dump to
// outputPath.
func runPass(inputPath, outputPath string, sm uint8, pass func(shader *ir.Shader)) error {
	if sm < 70 {
		return fmt.Errorf("--sm %d: shader models below sm70 are not supported", sm)
	}

	text, err := readAll(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fn, err := ir.ParseFunction(text)
	if err != nil {
		return fmt.Errorf("parsing IR: %w", err)
	}

	shader := ir.NewShader(smcap.New(sm))
	shader.Functions = append(shader.Functions, fn)

	pass(shader)

	return writeAll(outputPath, ir.DumpFunction(fn))
}

func readAll(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

func writeAll(path, content string) error {
	if path == "-" {
		_, err := fmt.Print(content)
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func parseRegFileFlag(s string) (ir.RegFile, error) {
	switch s {
	case "GPR", "gpr":
		return ir.GPR, nil
	case "UGPR", "ugpr":
		return ir.UGPR, nil
	case "Pred", "pred", "PRED":
		return ir.Pred, nil
	case "UPred", "upred", "UPRED":
		return ir.UPred, nil
	case "Bar", "bar", "BAR":
		return ir.Bar, nil
	default:
		return 0, fmt.Errorf("unknown register file %q: want GPR, UGPR, Pred, UPred, or Bar", s)
	}
}
