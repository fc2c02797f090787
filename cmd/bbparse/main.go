// Command bbparse is the CLI entry point for the parse layer, in the
// flag/subcommand style of the teacher's cmd/lci/main.go: global flags
// parsed once, subcommands as cli.Command values, cleanup funcs registered
// and run on exit.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/bbcore/internal/datastore"
	"github.com/standardbeagle/bbcore/internal/mcpsrv"
	"github.com/standardbeagle/bbcore/internal/parse"
	"github.com/standardbeagle/bbcore/internal/parseopts"
	"github.com/standardbeagle/bbcore/internal/version"
)

var cleanupFuncs []func()

func newApp() *cli.App {
	return &cli.App{
		Name:    "bbparse",
		Usage:   "resolve, parse and evaluate BitBake-style recipe/config files",
		Version: version.FullInfo(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Usage: "project root directory (where bbcore.kdl and BBPATH layers live)",
				Value: ".",
			},
			&cli.StringFlag{
				Name:  "bbpath",
				Usage: "colon-separated search path, overrides bbcore.kdl/BBPATH",
			},
		},
		Commands: []*cli.Command{
			resolveCommand,
			handleCommand,
			metricsCommand,
			watchCommand,
		},
	}
}

func main() {
	app := newApp()

	defer func() {
		for _, cleanup := range cleanupFuncs {
			cleanup()
		}
	}()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newSession(c *cli.Context) (*parse.Session, datastore.Datastore, error) {
	opts, err := parseopts.Load(c.String("root"))
	if err != nil {
		return nil, nil, err
	}

	ds := datastore.NewMemDataStore()
	bbpath := c.String("bbpath")
	if bbpath == "" {
		bbpath = opts.BBPath
	}
	if bbpath != "" {
		ds.SetVar("BBPATH", bbpath)
	}

	session := parse.NewSession(parse.Options{Switches: opts})
	if opts.MetricsDir != "" {
		session.Metrics.SetOutputDir(opts.MetricsDir)
	}
	cleanupFuncs = append(cleanupFuncs, func() {
		session.Metrics.Flush("bbparse exit")
	})
	return session, ds, nil
}

var resolveCommand = &cli.Command{
	Name:      "resolve",
	Usage:     "resolve a file or class name against BBPATH",
	ArgsUsage: "<name>",
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return cli.Exit("resolve requires a file/class name argument", 1)
		}
		session, ds, err := newSession(c)
		if err != nil {
			return err
		}
		resolved, err := session.ResolveFile(c.Args().First(), ds)
		if err != nil {
			return err
		}
		fmt.Println(resolved)
		return nil
	},
}

var handleCommand = &cli.Command{
	Name:      "handle",
	Usage:     "parse and evaluate a recipe/config/class file",
	ArgsUsage: "<path>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "json", Usage: "emit the handled path and its dependencies as JSON"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return cli.Exit("handle requires a file path argument", 1)
		}
		session, ds, err := newSession(c)
		if err != nil {
			return err
		}
		path := c.Args().First()
		if _, err := session.Handle(path, ds, false); err != nil {
			return err
		}
		if c.Bool("json") {
			enc := json.NewEncoder(os.Stdout)
			return enc.Encode(map[string]any{
				"path":         path,
				"dependencies": session.FileDepends(),
			})
		}
		fmt.Printf("handled %s\ndependencies: %s\n", path, session.FileDepends())
		return nil
	},
}

var metricsCommand = &cli.Command{
	Name:  "metrics",
	Usage: "print the cache hit/miss/eviction counters as JSON",
	Action: func(c *cli.Context) error {
		session, _, err := newSession(c)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(session.Metrics.Snapshot())
	},
}

var watchCommand = &cli.Command{
	Name:  "watch",
	Usage: "watch BBPATH layer directories and drop fingerprinted indexes on change, then serve MCP tools",
	Action: func(c *cli.Context) error {
		session, ds, err := newSession(c)
		if err != nil {
			return err
		}

		bbpath, _ := ds.GetVar("BBPATH")
		stop, err := watchLayers(strings.Split(bbpath, ":"), func() {
			session.Include.Invalidate()
			session.Classes.Invalidate()
		})
		if err != nil {
			return err
		}
		defer stop()

		srv := mcpsrv.NewServer(session, ds)
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return srv.Run(ctx)
	},
}
