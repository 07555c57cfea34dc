package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	stevedore "github.com/stevedore-pm/stevedore"
)

var (
	verbose  = flag.Bool("v", false, "enable debug logging")
	cachedir = flag.String("cache", "", "repository cache directory (default ~/.stevedore/cache)")
)

func main() {
	flag.Parse()

	l := logrus.New()
	if *verbose {
		l.Level = logrus.DebugLevel
	} else {
		l.Level = logrus.WarnLevel
	}

	do := flag.Arg(0)
	var args []string
	if do == "" {
		do = "help"
	} else {
		args = flag.Args()[1:]
	}

	for _, cmd := range commands {
		if do != cmd.name {
			continue
		}
		if err := cmd.fn(l, args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	fmt.Fprintf(os.Stderr, "unknown command: %q\n", do)
	help(nil, nil)
	os.Exit(2)
}

type command struct {
	fn    func(l *logrus.Logger, args []string) error
	name  string
	short string
}

var commands = []*command{
	{fn: resolveCmd, name: "resolve", short: "resolve the Depfile and write Depfile.lock"},
	{fn: checkCmd, name: "check", short: "verify Depfile.lock still satisfies the Depfile"},
	{fn: checkoutCmd, name: "checkout", short: "export locked dependencies into Checkouts/"},
}

func init() {
	commands = append(commands, &command{
		fn:    help,
		name:  "help",
		short: "show this help",
	})
}

func help(_ *logrus.Logger, _ []string) error {
	fmt.Fprintf(os.Stderr, "usage: stevedore [-v] [-cache dir] <command>\n\ncommands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", cmd.name, cmd.short)
	}
	return nil
}

func cacheDir() (string, error) {
	if *cachedir != "" {
		return *cachedir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".stevedore", "cache"), nil
}

func readDepfile() (*stevedore.Depfile, error) {
	f, err := os.Open(stevedore.DepfileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return stevedore.ReadDepfile(f)
}

func readLockfile() (*stevedore.Lockfile, error) {
	f, err := os.Open(stevedore.LockfileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return stevedore.ReadLockfile(f)
}

func newSource(df *stevedore.Depfile, l *logrus.Logger) (*stevedore.GitSourceManager, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return nil, err
	}
	return stevedore.NewGitSourceManager(dir, df.Remotes, l), nil
}

func resolveCmd(l *logrus.Logger, _ []string) error {
	df, err := readDepfile()
	if err != nil {
		return err
	}

	sm, err := newSource(df, l)
	if err != nil {
		return err
	}

	res, err := stevedore.NewResolver(sm, l).Resolve(df.Requirements)
	if err != nil {
		return err
	}

	f, err := os.Create(stevedore.LockfileName)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := stevedore.WriteLockfile(f, stevedore.NewLockfile(res.Pins())); err != nil {
		return err
	}

	fmt.Printf("resolved %d dependencies in %d attempts\n", len(res.Pins()), res.Attempts())
	return nil
}

func checkCmd(_ *logrus.Logger, _ []string) error {
	df, err := readDepfile()
	if err != nil {
		return err
	}
	lf, err := readLockfile()
	if err != nil {
		return err
	}

	pins := lf.Per()
	var stale bool
	for id, spec := range df.Requirements {
		rev, locked := pins[id]
		if !locked {
			fmt.Printf("%s: required but not in lock\n", id)
			stale = true
			continue
		}
		// References pin by name resolution, which the lock has already
		// flattened to a revision; only version-shaped specifiers can be
		// re-checked offline.
		if stevedore.IsRef(spec) {
			continue
		}
		if !spec.Matches(stevedore.NewConcreteVersion(rev)) {
			fmt.Printf("%s: locked at %s, which no longer satisfies %s\n", id, rev, spec)
			stale = true
		}
	}

	if stale {
		return fmt.Errorf("lock is stale; run `stevedore resolve`")
	}
	fmt.Println("lock is up to date")
	return nil
}

func checkoutCmd(l *logrus.Logger, _ []string) error {
	df, err := readDepfile()
	if err != nil {
		return err
	}
	lf, err := readLockfile()
	if err != nil {
		return err
	}

	sm, err := newSource(df, l)
	if err != nil {
		return err
	}

	for id, rev := range lf.Per() {
		to := filepath.Join("Checkouts", id.Name)
		if err := os.RemoveAll(to); err != nil {
			return err
		}
		if err := sm.ExportRevisionTo(id, rev, to); err != nil {
			return err
		}
		fmt.Printf("checked out %s at %s\n", id, rev)
	}
	return nil
}
