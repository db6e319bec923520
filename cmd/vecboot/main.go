package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	_ "github.com/viant/afsc/gs"
	_ "github.com/viant/afsc/s3"
	"github.com/viant/vecboot/service"
)

var errUsage = errors.New("usage")

func main() {
	if enabled(os.Getenv("VECBOOT_GOPS")) {
		startGops()
	}
	cmd, args := "init", os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}
	var err error
	switch cmd {
	case "init":
		err = initCmd(args, os.Stdout)
	case "list":
		err = listCmd(args, os.Stdout)
	case "check":
		err = checkCmd(args, os.Stdout)
	case "help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}
	if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: vecboot [command] [options]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  init    Ensure configured collections exist (default)")
	fmt.Fprintln(os.Stderr, "  list    List collections in the store")
	fmt.Fprintln(os.Stderr, "  check   Verify configured collections exist without creating them")
}

type options struct {
	configPath  string
	backend     string
	dir         string
	collections string
	lockTimeout *int
}

func parseFlags(name string, args []string) (*options, error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	opts := &options{}
	flags.StringVar(&opts.configPath, "config", "", "config yaml (optional)")
	flags.StringVar(&opts.backend, "backend", "", "storage backend: sqlite+vec|badger|chromem|mem|mysql|postgres")
	flags.StringVar(&opts.dir, "dir", "", "persist directory (default ./data)")
	flags.StringVar(&opts.collections, "collection", "", "comma-separated collection names (default call_docs)")
	lockTimeout := flags.Int("lock-timeout", 0, "seconds to wait for a busy persist directory; 0 fails fast, -1 waits indefinitely")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if flags.NArg() > 0 {
		flags.Usage()
		return nil, fmt.Errorf("%w: unexpected arguments: %v", errUsage, flags.Args())
	}
	flags.Visit(func(f *flag.Flag) {
		if f.Name == "lock-timeout" {
			opts.lockTimeout = lockTimeout
		}
	})
	return opts, nil
}

// resolveConfig applies defaults, the config file, environment and flags in that order.
func resolveConfig(opts *options) (*service.Config, error) {
	cfg := service.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := service.LoadConfig(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if opts.backend != "" {
		cfg.Store.Backend = opts.backend
	}
	if opts.dir != "" {
		cfg.Store.PersistDirectory = opts.dir
	}
	if names := service.ParseCSV(opts.collections); len(names) > 0 {
		cfg.SetCollections(names)
	}
	if opts.lockTimeout != nil {
		cfg.Store.LockTimeoutSeconds = *opts.lockTimeout
	}
	return cfg, nil
}

func newService(name string, args []string, stdout io.Writer) (*service.Service, error) {
	opts, err := parseFlags(name, args)
	if err != nil {
		return nil, err
	}
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}
	return service.NewService(
		service.WithConfig(cfg),
		service.WithOutput(stdout),
		service.WithLogf(debugLogf()),
	)
}

func initCmd(args []string, stdout io.Writer) error {
	srv, err := newService("init", args, stdout)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	_, err = srv.Bootstrap(ctx)
	return err
}

func listCmd(args []string, stdout io.Writer) error {
	srv, err := newService("list", args, stdout)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	items, err := srv.List(ctx)
	if err != nil {
		return err
	}
	for _, c := range items {
		fmt.Fprintf(stdout, "%s\t%s\t%s\n", c.Name, c.ID, c.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func checkCmd(args []string, stdout io.Writer) error {
	srv, err := newService("check", args, stdout)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	items, err := srv.Check(ctx)
	for _, c := range items {
		fmt.Fprintf(stdout, "Collection '%s' exists\n", c.Name)
	}
	return err
}

func debugLogf() func(format string, args ...any) {
	if enabled(os.Getenv("VECBOOT_DEBUG")) {
		return log.Printf
	}
	return nil
}

func enabled(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func startGops() {
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		log.Printf("gops: %v", err)
	}
}
