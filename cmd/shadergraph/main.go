// Command shadergraph creates, inspects and previews shader graph projects.
//
// Usage:
//
//	shadergraph [-config file.yaml] <command> [flags]
//
// Commands are new, gen, eval, swatch, watch and ui.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/soypat/shadergraph"
	"github.com/soypat/shadergraph/config"
)

// GLFW requires the main thread.
func init() {
	runtime.LockOSThread()
}

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, cfg *config.Loader, args []string) error
}

var commands = []command{
	{"new", "write a sample project", runNew},
	{"gen", "write the generated GLSL of a project", runGen},
	{"eval", "print the output color of a project", runEval},
	{"swatch", "render the output color of a project to a PNG", runSwatch},
	{"watch", "regenerate GLSL whenever a project changes", runWatch},
	{"ui", "open the preview window", runUI},
}

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config. Defaults are used when empty")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level := new(slog.LevelVar)
	setLevel(level, loader.Get())
	loader.OnChange(func(c *config.Config) { setLevel(level, c) })
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	shadergraph.SetLogger(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	name, args := flag.Arg(0), flag.Args()[1:]
	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		err = cmd.run(ctx, loader, args)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, flag.ErrHelp) {
			slog.Error(name+" failed", "err", err)
			os.Exit(1)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "unknown command %q\n", name)
	usage()
	os.Exit(2)
}

func setLevel(v *slog.LevelVar, c *config.Config) {
	lvl, _ := c.Log.SlogLevel()
	v.Set(lvl)
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "usage: shadergraph [-config file.yaml] <command> [flags]")
	fmt.Fprintln(out, "\ncommands:")
	for _, cmd := range commands {
		fmt.Fprintf(out, "  %-8s %s\n", cmd.name, cmd.usage)
	}
	fmt.Fprintln(out, "\nflags:")
	flag.PrintDefaults()
}
