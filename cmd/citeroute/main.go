// Command citeroute is the offline tooling boundary: it adapts hand-authored
// jurisdiction documents to the current schema, dry-runs registry loads, and
// matches citations against a configuration directory.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/recourselabs/citeroute/adapt"
	"github.com/recourselabs/citeroute/internal/docio"
	"github.com/recourselabs/citeroute/registry"
	"github.com/recourselabs/citeroute/validate"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "adapt":
		adaptCmd(os.Args[2:])
	case "check":
		checkCmd(os.Args[2:])
	case "match":
		matchCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `citeroute CLI

Usage:
  citeroute adapt <file-or-dir> [-o out] [--strict] [-v]
  citeroute check <dir> [-v]
  citeroute match <dir> <citation> [-v]

adapt rewrites documents to the current schema; a directory is processed as a
batch and one bad document does not abort the rest. check dry-runs a registry
load. match loads a directory and resolves one citation to its mailing
address.`)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func adaptCmd(args []string) {
	fs := flag.NewFlagSet("adapt", flag.ExitOnError)
	out := fs.StringP("out", "o", "", "output file or directory (default: rewrite in place)")
	strict := fs.Bool("strict", false, "fail on any invariant violation instead of auto-fixing")
	verbose := fs.BoolP("verbose", "v", false, "log every warning")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	path := fs.Arg(0)
	log := newLogger(*verbose)

	info, err := os.Stat(path)
	if err != nil {
		fatalf("stat %s: %v", path, err)
	}
	if !info.IsDir() {
		if ok := adaptOne(log, path, outPathFor(*out, path, false), *strict); !ok {
			os.Exit(1)
		}
		return
	}

	paths, err := docio.ListDocuments(path)
	if err != nil {
		fatalf("listing %s: %v", path, err)
	}
	succeeded, failed := 0, 0
	for _, p := range paths {
		if adaptOne(log, p, outPathFor(*out, p, true), *strict) {
			succeeded++
		} else {
			failed++
		}
	}
	fmt.Printf("adapted %d document(s), %d failed\n", succeeded, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// outPathFor picks where an adapted document lands: the explicit output (a
// directory when batching), or back where it came from. Adapted output is
// always JSON.
func outPathFor(out, in string, batch bool) string {
	jsonName := replaceExt(in, ".json")
	if out == "" {
		return jsonName
	}
	if batch {
		return filepath.Join(out, filepath.Base(jsonName))
	}
	return out
}

func replaceExt(path, ext string) string {
	return path[:len(path)-len(filepath.Ext(path))] + ext
}

func adaptOne(log *slog.Logger, in, out string, strict bool) bool {
	doc, err := docio.ReadFile(in)
	if err != nil {
		fmt.Printf("FAIL %s: %v\n", in, err)
		return false
	}
	res := adapt.Adapt(doc, adapt.Option{Strict: strict})
	for _, w := range res.Warnings {
		log.Debug("warning", "file", in, "code", w.Code, "detail", w.Message)
	}
	if !res.Success {
		fmt.Printf("FAIL %s\n", in)
		for _, e := range res.Errors {
			fmt.Printf("  %s: %s\n", e.Code, e.Message)
		}
		return false
	}
	if err := docio.WriteFile(out, res.Doc); err != nil {
		fmt.Printf("FAIL %s: writing %s: %v\n", in, out, err)
		return false
	}
	fmt.Printf("OK   %s -> %s (%d warning(s))\n", in, out, len(res.Warnings))
	return true
}

func checkCmd(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	verbose := fs.BoolP("verbose", "v", false, "log load details")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	log := newLogger(*verbose)

	reg := registry.New(registry.WithLogger(log))
	if err := reg.Load(fs.Arg(0)); err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("ok: %d jurisdiction(s) loaded\n", reg.Len())
	for _, id := range reg.IDs() {
		cfg, _ := reg.Jurisdiction(id)
		fmt.Printf("  %-24s %d pattern(s)\n", id, len(cfg.CitationPatterns))
	}
}

func matchCmd(args []string) {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	verbose := fs.BoolP("verbose", "v", false, "log load details")
	_ = fs.Parse(args)
	if fs.NArg() != 2 {
		fs.Usage()
		os.Exit(2)
	}
	log := newLogger(*verbose)

	reg := registry.New(registry.WithLogger(log))
	if err := reg.Load(fs.Arg(0)); err != nil {
		fatalf("%v", err)
	}
	v := validate.New(validate.NewRegistryMatcher(reg), reg)
	res := v.Validate(context.Background(), validate.Request{Citation: fs.Arg(1)})
	if !res.IsValid {
		fatalf("invalid citation: %s", res.ErrorMessage)
	}
	if !res.Matched {
		fatalf("no jurisdiction matched %s", res.Citation)
	}
	fmt.Printf("citation:     %s\n", res.Citation)
	fmt.Printf("jurisdiction: %s\n", res.JurisdictionID)
	fmt.Printf("section:      %s\n", res.SectionID)
	if res.LegacyFallback {
		fmt.Println("source:       legacy classifier (not in the registry)")
		return
	}
	addr, err := reg.ResolveAddress(res.JurisdictionID, res.SectionID)
	if err != nil {
		fatalf("address resolution: %v", err)
	}
	if addr.Department != "" {
		fmt.Printf("department:   %s\n", addr.Department)
	}
	fmt.Printf("address:      %s, %s, %s %s, %s\n",
		addr.Address1, addr.City, addr.State, addr.Zip, addr.Country)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
