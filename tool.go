package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/gopherjs/getsource/internal/config"
	"github.com/gopherjs/getsource/internal/errorList"
	"github.com/gopherjs/getsource/stacktrace"
	"github.com/gopherjs/getsource/store"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// maxErrors limits the number of failures a command returns.
const maxErrors = 10

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(&cfg).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:          "getsource",
		Short:        "Map positions in generated JavaScript back to original sources",
		Long:         "getsource follows chains of source maps from a position in a generated file to the original source.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := log.ParseLevel(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("invalid --log_level: %w", err)
			}
			log.SetLevel(lvl)
			if cfg.MaxDepth <= 0 {
				return fmt.Errorf("--max_depth must be positive, got %d", cfg.MaxDepth)
			}
			return nil
		},
	}
	addStoreFlags(root.PersistentFlags(), cfg)

	root.AddCommand(newResolveCmd(cfg), newTraceCmd(cfg), newMappingsCmd(cfg))
	return root
}

func addStoreFlags(fs *pflag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.LogLevel, "log_level", cfg.LogLevel, "log level (debug, info, warning, error)")
	fs.IntVar(&cfg.MaxDepth, "max_depth", cfg.MaxDepth, "maximum number of source maps to follow for one position")
	fs.BoolVar(&cfg.HTTP, "http", cfg.HTTP, "fetch http and https references over the network")
}

func newStore(cfg *config.Config, onLoad func(*store.Artifact)) *store.Store {
	local := store.OSFetcher{}
	var fetcher store.Fetcher = local
	if cfg.HTTP {
		web := store.HTTPFetcher{}
		fetcher = store.SchemeMux{
			Default: local,
			Schemes: map[string]store.Fetcher{
				"file":  local,
				"http":  web,
				"https": web,
			},
		}
	}
	return store.New(store.Options{
		Fetcher:  fetcher,
		MaxDepth: cfg.MaxDepth,
		OnLoad:   onLoad,
	})
}

// parseRequest splits "<ref>:<line>:<column>". The reference may contain
// colons itself.
func parseRequest(arg string) (store.Request, error) {
	colIdx := strings.LastIndexByte(arg, ':')
	if colIdx < 0 {
		return store.Request{}, fmt.Errorf("%q: want <file>:<line>:<column>", arg)
	}
	lineIdx := strings.LastIndexByte(arg[:colIdx], ':')
	if lineIdx <= 0 {
		return store.Request{}, fmt.Errorf("%q: want <file>:<line>:<column>", arg)
	}
	line, err := strconv.Atoi(arg[lineIdx+1 : colIdx])
	if err != nil || line < 1 {
		return store.Request{}, fmt.Errorf("%q: invalid line number", arg)
	}
	col, err := strconv.Atoi(arg[colIdx+1:])
	if err != nil || col < 1 {
		return store.Request{}, fmt.Errorf("%q: invalid column number", arg)
	}
	return store.Request{
		Ref:      arg[:lineIdx],
		Position: store.Position{Line: line, Column: col},
	}, nil
}

func newResolveCmd(cfg *config.Config) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "resolve <file>:<line>:<column>...",
		Short: "Print original locations of positions in generated files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requests := make([]store.Request, 0, len(args))
			for _, arg := range args {
				req, err := parseRequest(arg)
				if err != nil {
					return err
				}
				requests = append(requests, req)
			}

			locs, err := newStore(cfg, nil).ResolveAll(cmd.Context(), requests)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var errs errorList.ErrorList
			for _, loc := range locs {
				if loc.Err != nil {
					err := fmt.Errorf("%s: %w", loc, loc.Err)
					fmt.Fprintln(cmd.ErrOrStderr(), err)
					errs = errs.Append(err)
					continue
				}
				if loc.Name != "" {
					fmt.Fprintf(out, "%s (%s)\n", loc, loc.Name)
				} else {
					fmt.Fprintln(out, loc)
				}
				if !quiet && loc.SourceLine != "" {
					fmt.Fprintf(out, "\t%s\n", loc.SourceLine)
				}
			}
			return errs.Trim(maxErrors).ErrOrNil()
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "don't print source lines")
	return cmd
}

func newTraceCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace [file]",
		Short: "Rewrite a JavaScript stack trace to point at original sources",
		Long:  "Reads a stack trace from the file, or stdin if none is given, and prints it with every resolvable frame replaced by its original location.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			} else if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				log.Info("Reading stack trace from the terminal, press Ctrl+D to finish.")
			}

			var onLoad func(*store.Artifact)
			var watcher *store.Watcher
			if cfg.Watch {
				w, err := store.NewWatcher(store.OSFetcher{})
				if err != nil {
					return fmt.Errorf("failed to start file watcher: %w", err)
				}
				defer w.Close()
				watcher, onLoad = w, w.Add
			}
			s := newStore(cfg, onLoad)

			if watcher != nil {
				ctx, cancel := context.WithCancel(cmd.Context())
				defer cancel()
				go func() {
					if err := watcher.Run(ctx, s.ResetCache); err != nil && !errors.Is(err, context.Canceled) {
						log.Errorf("File watcher stopped: %s", err)
					}
				}()
			}

			return rewriteTrace(s, in, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&cfg.Watch, "watch", cfg.Watch, "reload files which change on disk while the trace is being read")
	return cmd
}

func rewriteTrace(s *store.Store, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if _, err := fmt.Fprintln(out, stacktrace.RewriteLine(s, scanner.Text())); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func newMappingsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "mappings <file>",
		Short: "Print the decoded mapping table of a generated file's source map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newStore(cfg, nil).Get(args[0])
			if a.Err != nil {
				return a.Err
			}
			m := a.SourceMap()
			if m == nil {
				return fmt.Errorf("%s has no usable source map", a.Ref)
			}

			out := cmd.OutOrStdout()
			for i := 0; i < m.Sources(); i++ {
				fmt.Fprintf(out, "#%d %s\n", i, m.Source(i))
			}
			for _, mapping := range m.Mappings() {
				if mapping.Name >= 0 {
					fmt.Fprintf(out, "%s %s\n", mapping, m.Name(mapping.Name))
				} else {
					fmt.Fprintln(out, mapping)
				}
			}
			return nil
		},
	}
}
