// Command june is the front end for the June bytecode VM: it loads a
// source or compiled module, links the core native module, and executes
// it. Parsing and compiling June source text is out of the VM's scope
// (spec.md §1) — there is no "compile" subcommand, and "disasm" here
// operates purely on already-produced bytecode blobs.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kristofer/june/pkg/bytecode"
	"github.com/kristofer/june/pkg/corelib"
	"github.com/kristofer/june/pkg/julog"
	"github.com/kristofer/june/pkg/srcfile"
	"github.com/kristofer/june/pkg/vm"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "june",
		Short: "The June bytecode virtual machine",
	}

	var logFormat, logLevel string
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log output format: text or json")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		julog.Configure(logFormat, logLevel)
	}

	root.AddCommand(
		runCmd(),
		disasmCmd(),
		replCmd(),
		versionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the VM version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("june %s\n", version)
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Run a June source or compiled module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(args[0])
		},
	}
}

func disasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <file>",
		Short: "Disassemble a compiled bytecode file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return disassembleFile(args[0])
		},
	}
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL()
		},
	}
}

func newState() (*vm.State, error) {
	self, err := os.Executable()
	if err != nil {
		self = os.Args[0]
	}
	s := vm.New(self, os.Args[1:])
	return s, nil
}

func runFile(path string) error {
	s, err := newState()
	if err != nil {
		return err
	}
	defer s.Teardown()

	corelib.Init(s, 0, 0)

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("june: %w", err)
	}

	srcId := s.NextSrcId()
	sf, err := srcfile.Load(srcId, ".", path, raw, true)
	if err != nil {
		return fmt.Errorf("june: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("june: %w", err)
	}
	s.AllSrcs[absPath] = sf

	if sf.Bytecode == nil {
		return fmt.Errorf("june: %s contains source text; compiling is out of scope for this engine", path)
	}

	ex := vm.NewExecutor(s)
	result, err := ex.Exec(srcId, sf.Bytecode, 0, 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, sf.Diagnostic(0, err.Error()))
		os.Exit(1)
	}
	_ = result

	if s.ExitCalled {
		os.Exit(int(s.ExitCode))
	}
	return nil
}

func disassembleFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("june: %w", err)
	}
	if len(raw) < 4 || raw[0] != 'J' || raw[1] != 'U' || raw[2] != 'N' || raw[3] != 'E' {
		return fmt.Errorf("june: %s is not a compiled bytecode file", path)
	}

	bc, err := bytecode.Decode(bytes.NewReader(raw[4:]))
	if err != nil {
		return err
	}

	for i, op := range bc.Ops {
		d, _ := bc.Data.At(op.DataIdx)
		fmt.Printf("%5d  %-16s %s\n", i, op.Op, d)
	}
	return nil
}

func runREPL() error {
	fmt.Println("june interactive session (bytecode input only; type .exit to quit)")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return nil
		}
		line := scanner.Text()
		if line == ".exit" {
			return nil
		}
		fmt.Println("june: the REPL accepts bytecode paths only; compiling source interactively is out of scope")
	}
}
