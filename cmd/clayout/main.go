package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/xyproto/env/v2"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/clayout"
	"github.com/wippyai/clayout/abi"
	"github.com/wippyai/clayout/abi/wasm"
	"github.com/wippyai/clayout/ctype"
	"github.com/wippyai/clayout/diag"
	"github.com/wippyai/clayout/layout"
	"github.com/wippyai/clayout/target"
	"github.com/wippyai/clayout/typefile"
	"github.com/wippyai/clayout/witc"
)

func main() {
	var (
		typesFile   = flag.String("types", "", "Path to a JSON type description file")
		witFile     = flag.String("wit", "", "Path to a WIT JSON resolve (wasm-tools component wit --json)")
		typeName    = flag.String("type", "", "Only show this type")
		targetName  = flag.String("target", env.Str("CLAYOUT_TARGET", "host"), "Target: "+strings.Join(target.Names(), ", ")+", host")
		abiName     = flag.String("abi", env.Str("CLAYOUT_ABI"), "Calling convention: sysv or wasm (default: by target)")
		interactive = flag.Bool("i", false, "Interactive browser")
		verbose     = flag.Bool("v", env.Bool("CLAYOUT_VERBOSE"), "Debug logging")
	)
	flag.Parse()

	if (*typesFile == "") == (*witFile == "") {
		fmt.Fprintln(os.Stderr, "Usage: clayout -types <file.json> [-type name] [-target name] [-abi sysv|wasm]")
		fmt.Fprintln(os.Stderr, "       clayout -wit <resolve.json> [-type name] [-target wasm32]")
		fmt.Fprintln(os.Stderr, "       clayout -types <file.json> -i  (interactive mode)")
		os.Exit(1)
	}

	log, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	layout.SetLogger(log.Named("layout"))
	abi.SetLogger(log.Named("abi"))

	cfg := config{
		typesFile: *typesFile,
		witFile:   *witFile,
		typeName:  *typeName,
		target:    *targetName,
		abi:       *abiName,
		color:     !env.Has("NO_COLOR") && term.IsTerminal(int(os.Stdout.Fd())),
	}

	if *interactive {
		err = runInteractive(cfg, log)
	} else {
		err = run(cfg, log)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type config struct {
	typesFile string
	witFile   string
	typeName  string
	target    string
	abi       string
	color     bool
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zc.DisableStacktrace = true
	return zc.Build()
}

func run(cfg config, log *zap.Logger) error {
	s, types, err := load(cfg, log)
	if err != nil {
		return err
	}
	names, err := selectNames(types, cfg.typeName)
	if err != nil {
		return err
	}

	p := newPrinter(cfg.color)
	fmt.Println(p.header(s))
	for _, name := range names {
		fmt.Println()
		fmt.Print(p.describe(s, name, types[name]))
	}
	return nil
}

// load reads the input types and opens a session for the chosen target.
func load(cfg config, log *zap.Logger) (*clayout.Session, map[string]ctype.Type, error) {
	tg, err := target.Lookup(cfg.target)
	if err != nil {
		return nil, nil, err
	}

	var (
		types map[string]ctype.Type
		res   *wit.Resolve
	)
	if cfg.witFile != "" {
		if res, err = wit.LoadJSON(cfg.witFile); err != nil {
			return nil, nil, fmt.Errorf("load WIT: %w", err)
		}
		if types, err = witc.NewConverter(tg).Resolve(res); err != nil {
			return nil, nil, err
		}
	} else {
		if types, err = typefile.Load(cfg.typesFile); err != nil {
			return nil, nil, err
		}
	}

	opts := []clayout.Option{clayout.WithLogger(log)}
	switch cfg.abi {
	case "":
	case "sysv":
		opts = append(opts, clayout.WithABI(abi.NewSysV(abi.SysVAMD64(), abi.WithSink(diag.NewZapSink(log)))))
	case "wasm":
		opts = append(opts, clayout.WithABI(wasm.New(tg.PointerSize(), diag.NewZapSink(log))))
	default:
		return nil, nil, fmt.Errorf("unknown ABI %q (want sysv or wasm)", cfg.abi)
	}

	s, err := clayout.New(tg, opts...)
	if err != nil {
		return nil, nil, err
	}
	if res != nil && tg.PointerSize() == 4 {
		checkCanonical(s, res, types, log)
	}
	return s, types, nil
}

// checkCanonical warns about converted WIT types whose C layout differs from
// the canonical ABI layout.
func checkCanonical(s *clayout.Session, res *wit.Resolve, types map[string]ctype.Type, log *zap.Logger) {
	canon := witc.NewCanonical()
	for _, td := range res.TypeDefs {
		if td.Name == nil {
			continue
		}
		ct, ok := types[*td.Name]
		if !ok {
			continue
		}
		l, err := s.Layout(ct)
		if err != nil {
			continue
		}
		if ci := canon.Calculate(td); ci.Size != l.Size || ci.Align != l.Align {
			log.Warn("C layout differs from canonical ABI",
				zap.String("type", *td.Name),
				zap.Int64("size", l.Size),
				zap.Int64("align", l.Align),
				zap.Int64("canonical_size", ci.Size),
				zap.Int64("canonical_align", ci.Align))
		}
	}
}

func selectNames(types map[string]ctype.Type, only string) ([]string, error) {
	if only != "" {
		if _, ok := types[only]; !ok {
			return nil, fmt.Errorf("type %q not found", only)
		}
		return []string{only}, nil
	}
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
