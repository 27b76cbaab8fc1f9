package main

import (
	"errors"
	goflag "flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	z80asm "github.com/Memotech-Bill/Z80Asm"
	"github.com/Memotech-Bill/Z80Asm/assembler"
	"github.com/Memotech-Bill/Z80Asm/output"
	"github.com/Memotech-Bill/Z80Asm/patch"
	"github.com/golang/glog"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
)

var opts struct {
	style      string
	cpu        string
	outBase    string
	binary     bool
	hex        bool
	symbols    bool
	list       bool
	listForce  bool
	listCond   bool
	address    bool
	reformat   string
	fill       uint8
	csegBase   uint16
	dsegBase   uint16
	permissive bool
	multiInc   bool
	modeline   bool
	keep       bool
	echo       bool
	update     []string
	defines    []string
	includes   []string
	build      int
	debug      bool
}

var rootCmd = &cobra.Command{
	Use:          "z80asm [flags] source",
	Short:        "multi-pass assembler for the 8080, Z80 and Z180",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer glog.Flush()
		return assemble(args[0])
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&opts.style, "style", "s", "", "source dialect: MA, M80, PASMO or ZASM")
	f.StringVarP(&opts.cpu, "cpu-type", "t", "Z80", "target CPU: 8080, Z80 or Z180")
	f.StringVarP(&opts.outBase, "output", "o", "", "base name for output files")
	f.BoolVarP(&opts.binary, "binary", "b", false, "write a raw binary")
	f.BoolVarP(&opts.hex, "hex", "x", false, "write Intel hex")
	f.BoolVarP(&opts.symbols, "symbol", "y", false, "write a symbol file")
	f.BoolVarP(&opts.list, "list", "l", false, "write a listing")
	f.BoolVar(&opts.listForce, "list-force", false, "list lines suppressed by NOLIST")
	f.BoolVar(&opts.listCond, "list-cond", false, "list untaken conditional branches")
	f.BoolVarP(&opts.address, "address", "a", false, "show load addresses in the listing")
	f.StringVarP(&opts.reformat, "reformat", "r", "", "rewrite the source in another dialect: MA, M80 or ZASM")
	f.Uint8VarP(&opts.fill, "fill", "f", 0xFF, "fill byte for gaps in the binary")
	f.Uint16VarP(&opts.csegBase, "cseg", "c", 0, "base address of the code segment")
	f.Uint16VarP(&opts.dsegBase, "dseg", "d", 0, "base address of the data segment")
	f.BoolVarP(&opts.permissive, "permissive", "p", false, "downgrade loose-source problems to warnings")
	f.BoolVar(&opts.multiInc, "multi-inc", false, "splice a file every time it is included")
	f.BoolVarP(&opts.modeline, "modeline", "m", false, "read style and cpu from a modeline comment")
	f.BoolVarP(&opts.keep, "keep", "k", false, "write outputs even when there are errors")
	f.BoolVarP(&opts.echo, "echo", "e", false, "echo the listing to standard output")
	f.StringArrayVarP(&opts.update, "update", "u", nil, "patch the existing binary, limited to these region kinds (or ALL)")
	f.StringArrayVarP(&opts.defines, "define", "D", nil, "define a symbol, name or name=value")
	f.StringArrayVarP(&opts.includes, "include", "I", nil, "directory searched for included files")
	f.IntVar(&opts.build, "build", 0, "value emitted by the BUILD directive")
	f.BoolVar(&opts.debug, "debug", false, "dump the run state after assembly")
	rootCmd.PersistentFlags().AddGoFlagSet(goflag.CommandLine)
	rootCmd.AddCommand(viewCmd)
}

func parseDefines(raw []string) (map[string]int, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	defs := make(map[string]int, len(raw))
	for _, d := range raw {
		name, val := d, "1"
		if i := strings.IndexByte(d, '='); i >= 0 {
			name, val = d[:i], d[i+1:]
		}
		v, err := strconv.ParseInt(val, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("bad definition %q: %w", d, err)
		}
		defs[name] = int(v)
	}
	return defs, nil
}

func assemble(srcPath string) error {
	src, err := os.ReadFile(srcPath)
	if err != nil {
		return err
	}

	styleName, cpuName := opts.style, opts.cpu
	if opts.modeline {
		if s, c, ok := assembler.ScanModeline(string(src)); ok {
			if s != "" {
				styleName = s
			}
			if c != "" {
				cpuName = c
			}
		}
	}
	style, ok := z80asm.ParseStyle(styleName)
	if !ok {
		return fmt.Errorf("unknown or missing style %q", styleName)
	}
	cpu, ok := z80asm.ParseCPU(cpuName)
	if !ok {
		return fmt.Errorf("unknown cpu %q", cpuName)
	}
	defines, err := parseDefines(opts.defines)
	if err != nil {
		return err
	}
	var scope z80asm.ScopeSet
	if len(opts.update) > 0 {
		scope, ok = z80asm.ParseScope(opts.update)
		if !ok {
			return fmt.Errorf("bad update scope %v", opts.update)
		}
	}

	outBase := opts.outBase
	if outBase == "" {
		outBase = strings.TrimSuffix(srcPath, filepath.Ext(srcPath))
	}

	if opts.reformat != "" {
		return writeReformat(srcPath, string(src), style, outBase)
	}

	asm := assembler.MakeAssembler(assembler.Info{
		Style:       style,
		CPU:         cpu,
		Permissive:  opts.permissive,
		MultiInc:    opts.multiInc,
		IncludeDirs: opts.includes,
		Defines:     defines,
		CodeBase:    int(opts.csegBase),
		DataBase:    int(opts.dsegBase),
		Fill:        opts.fill,
		Update:      scope,
		ListCond:    opts.listCond,
		Build:       opts.build,
	})
	res, asmErr := asm.AssembleFile(srcPath)

	for _, d := range asm.Warns.Diags {
		fmt.Fprintf(os.Stderr, "warning: %s\n", d.Error())
	}
	if asmErr != nil {
		for _, d := range asm.Errs.Diags {
			fmt.Fprintln(os.Stderr, d.Error())
		}
	}
	if opts.debug {
		pp.Fprintln(os.Stderr, res.Syms.All())
	}

	if opts.list || opts.echo {
		if err := writeListing(res, &asm.Errs, outBase); err != nil {
			return err
		}
	}
	if asmErr != nil && !opts.keep {
		return errors.New("assembly failed")
	}
	if err := writeOutputs(res, style, scope, outBase); err != nil {
		return err
	}
	if asmErr != nil {
		return errors.New("assembly failed")
	}
	return nil
}

func writeListing(res *assembler.Result, errs *z80asm.ErrorList, outBase string) error {
	lister := &output.Lister{ShowLoad: opts.address, Force: opts.listForce}
	if opts.echo {
		if err := lister.Write(os.Stdout, res, errs); err != nil {
			return err
		}
	}
	if !opts.list {
		return nil
	}
	f, err := os.Create(outBase + ".lst")
	if err != nil {
		return err
	}
	defer f.Close()
	return lister.Write(f, res, errs)
}

func writeOutputs(res *assembler.Result, style z80asm.Style, scope z80asm.ScopeSet, outBase string) error {
	img := res.Image
	binPath := outBase + ".bin"

	if scope != 0 {
		merged, err := mergeUpdate(img, binPath, scope)
		if err != nil {
			return err
		}
		img = merged
	}

	if opts.binary || scope != 0 {
		f, err := os.Create(binPath)
		if err != nil {
			return err
		}
		if err := output.WriteBinary(f, img); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	if opts.hex {
		f, err := os.Create(outBase + ".hex")
		if err != nil {
			return err
		}
		if err := output.WriteHex(f, img, res.Entry); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	if opts.symbols {
		f, err := os.Create(outBase + ".sym")
		if err != nil {
			return err
		}
		if err := output.WriteSymbols(f, res, style); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

// mergeUpdate loads the binary written by the previous run and patches
// it with the freshly assembled image under the update scope.
func mergeUpdate(fresh *z80asm.Image, binPath string, scope z80asm.ScopeSet) (*z80asm.Image, error) {
	data, err := os.ReadFile(binPath)
	if err != nil {
		return nil, fmt.Errorf("update run needs the previous binary: %w", err)
	}
	lo, _, ok := fresh.Bounds()
	if !ok {
		return fresh, nil
	}
	old := z80asm.LoadImage(data, lo, fresh.Fill)
	merged, err := patch.Merge(old, fresh, scope)
	if err != nil {
		var list *z80asm.ErrorList
		if errors.As(err, &list) {
			for _, d := range list.Diags {
				fmt.Fprintln(os.Stderr, d.Error())
			}
		}
		return nil, errors.New("update rejected")
	}
	for _, r := range patch.Changes(old, merged) {
		glog.Infof("patched 0x%04X..0x%04X", r.Lo, r.Hi)
	}
	return merged, nil
}

func writeReformat(srcPath, src string, from z80asm.Style, outBase string) error {
	to, ok := z80asm.ParseStyle(opts.reformat)
	if !ok {
		return fmt.Errorf("unknown reformat style %q", opts.reformat)
	}
	ext := to.DefaultExt()
	if ext == "" {
		ext = ".asm"
	}
	out := outBase + ext
	if out == srcPath {
		out = outBase + ".out" + ext
	}
	return os.WriteFile(out, []byte(output.Reformat(src, from, to)), 0o644)
}
