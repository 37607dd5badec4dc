// Command mvsc is the mvs-calculus compiler driver (spec.md §6). It is
// grounded on _examples/susji-c0/cmd/parse/main.go's flag-driven
// single-file pipeline (lex -> parse -> check -> ...), rebuilt on
// github.com/spf13/cobra for the exact flag set spec.md §6 lists and
// go.uber.org/zap in place of the teacher's fmt.Fprintf(os.Stderr, ...)
// fatal/perr/note helpers.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/susji/mvsc/capture"
	"github.com/susji/mvsc/check"
	"github.com/susji/mvsc/codegen"
	"github.com/susji/mvsc/ir"
	"github.com/susji/mvsc/lex"
	"github.com/susji/mvsc/parse"
	"github.com/susji/mvsc/runtime"
	"github.com/susji/mvsc/types"
	"github.com/susji/mvsc/vm"
)

type options struct {
	output            string
	optimize          bool
	benchmark         int
	emitLLVM          bool
	noPrint           bool
	maxStackArraySize int
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	log, _ := zap.NewDevelopment()

	cmd := &cobra.Command{
		Use:   "mvsc <input.mvs>",
		Short: "compile and run an mvs-calculus program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer log.Sync()
			return run(log, args[0], opts)
		},
		SilenceUsage: true,
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "", "output path (default: <input>.o)")
	flags.BoolVarP(&opts.optimize, "optimize", "O", false, "enable optimization")
	flags.IntVar(&opts.benchmark, "benchmark", 0, "wrap the entry expression in an N-iteration timing loop")
	flags.BoolVar(&opts.emitLLVM, "emit-llvm", false, "dump the low-level representation instead of emitting an object")
	flags.BoolVar(&opts.noPrint, "no-print", false, "suppress the default print of the entry expression's value")
	flags.IntVar(&opts.maxStackArraySize, "max-stack-array-size", 4096, "byte budget bounding stack-allocated arrays")

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// result is the subset of *vm.cell's exported surface this driver
// needs to print a scalar entry value; vm.Run returns an unexported
// type, so it is consumed here purely through these two methods.
type result interface {
	Int() int64
	Float() float64
}

func run(log *zap.Logger, input string, opts *options) error {
	src, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", input, err)
	}

	toks, errs := lex.Lex([]rune(string(src)))
	if errs != nil {
		for _, e := range errs {
			log.Error("lex", zap.Error(e))
		}
		return fmt.Errorf("%d lex error(s)", len(errs))
	}

	p := parse.NewFile(input)
	prog, perr := p.Program(toks)
	if perr != nil {
		for _, d := range p.Diagnostics() {
			fmt.Fprintln(os.Stderr, d.Format())
		}
		return fmt.Errorf("parse: %w", perr)
	}

	c := check.NewFile(input)
	if cerr := c.Check(prog); cerr != nil {
		for _, d := range c.Diagnostics() {
			fmt.Fprintln(os.Stderr, d.Format())
		}
		return fmt.Errorf("check: %w", cerr)
	}

	cg := codegen.New(capture.TypeOf(c.Type), c.Mutability, c.FuncLiteralType)
	cg.MaxStackArraySize = opts.maxStackArraySize
	irProg, cgerr := cg.Compile(prog)
	if cgerr != nil {
		return fmt.Errorf("codegen: %w", cgerr)
	}

	if opts.emitLLVM {
		fmt.Print(irProg.Dump())
		return nil
	}

	out := opts.output
	if out == "" {
		out = strings.TrimSuffix(input, filepath.Ext(input)) + ".o"
	}
	if werr := os.WriteFile(out, []byte(irProg.Dump()), 0o644); werr != nil {
		return fmt.Errorf("cannot write %s: %w", out, werr)
	}
	log.Info("wrote object", zap.String("path", out))

	return execute(irProg, c.Type(prog.Entry), opts)
}

func execute(prog *ir.Program, resultType *types.Type, opts *options) error {
	// --no-print only suppresses this driver's own echo of the entry
	// expression's final value; a program's own mvs_print_i64/f64 calls
	// still go to stdout either way.
	abi := runtime.NewABI(os.Stdout)
	m := vm.New(prog, nil, abi)

	if opts.benchmark > 0 {
		start := abi.UptimeNanoseconds()
		var last result
		for i := 0; i < opts.benchmark; i++ {
			r, err := m.Run(prog.Entry)
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			last = r
		}
		elapsed := abi.UptimeNanoseconds() - start
		if !opts.noPrint {
			printResult(abi, last, resultType)
		}
		fmt.Printf("elapsed_ns=%d\n", elapsed)
		return nil
	}

	ret, err := m.Run(prog.Entry)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if !opts.noPrint {
		printResult(abi, ret, resultType)
	}
	return nil
}

func printResult(abi *runtime.ABI, ret result, t *types.Type) {
	if t != nil && t.Kind == types.KindFloat {
		abi.PrintF64(ret.Float())
		return
	}
	abi.PrintI64(ret.Int())
}
