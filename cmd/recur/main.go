// Command recur previews a recurrence descriptor offline.
//
// It reads a descriptor from a YAML or JSON file and prints its due dates for a
// window, the next due date, the compiled rule, or an iCalendar feed:
//
//	recur -f rent.yaml -start 2025-01-01 -end 2025-06-30
//	recur -f rent.yaml -next -from 2025-05-02
//	recur -f rent.yaml -ics > rent.ics
//	recur -watch
//
// Without -f the descriptor is read from $XDG_CONFIG_HOME/cashflow/recurrence.yaml.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"cloud.google.com/go/civil"

	"github.com/rezkam/cashflow/internal/application/finance"
	"github.com/rezkam/cashflow/internal/domain"
	"github.com/rezkam/cashflow/internal/infrastructure/calendar"
	"github.com/rezkam/cashflow/internal/recurrence"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := &app{stdout: os.Stdout, stderr: os.Stderr, now: time.Now}
	if err := a.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "recur: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	file  string
	start string
	end   string
	next  bool
	from  string
	ics   bool
	name  string
	rule  bool
	watch bool
}

type app struct {
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
	engine *recurrence.Engine
}

func (a *app) parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("recur", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.StringVar(&opts.file, "f", "", "descriptor file, YAML or JSON (default $XDG_CONFIG_HOME/"+defaultDescriptorFile+")")
	fs.StringVar(&opts.start, "start", "", "first day of the window, YYYY-MM-DD (default today)")
	fs.StringVar(&opts.end, "end", "", "last day of the window, YYYY-MM-DD (default start + 90 days)")
	fs.BoolVar(&opts.next, "next", false, "print the next due date instead of the window")
	fs.StringVar(&opts.from, "from", "", "reference day for -next, YYYY-MM-DD (default today)")
	fs.BoolVar(&opts.ics, "ics", false, "write the window as an iCalendar feed")
	fs.StringVar(&opts.name, "name", "", "event summary for -ics (default file name)")
	fs.BoolVar(&opts.rule, "rule", false, "print the compiled recurrence rule")
	fs.BoolVar(&opts.watch, "watch", false, "re-render whenever the descriptor file changes")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.next && opts.ics {
		return opts, errors.New("-next and -ics are mutually exclusive")
	}
	return opts, nil
}

func (a *app) run(ctx context.Context, args []string) error {
	opts, err := a.parseFlags(args)
	if err != nil {
		return err
	}
	if a.engine == nil {
		a.engine = recurrence.NewEngine(nil)
	}

	path, err := resolvePath(opts.file)
	if err != nil {
		return err
	}
	if opts.name == "" {
		opts.name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if !opts.watch {
		return a.renderFile(path, opts)
	}

	logger := slog.New(slog.NewTextHandler(a.stderr, nil))
	fw, err := newFileWatcher(path, logger)
	if err != nil {
		return err
	}
	if err := a.renderFile(path, opts); err != nil {
		logger.Error("render failed", "path", path, "error", err)
	}
	logger.Info("watching descriptor", "path", path)
	return fw.Run(ctx, func() {
		logger.Info("descriptor changed", "path", path)
		if err := a.renderFile(path, opts); err != nil {
			logger.Error("render failed", "path", path, "error", err)
		}
	})
}

func (a *app) renderFile(path string, opts options) error {
	d, err := loadDescriptor(path)
	if err != nil {
		return err
	}
	return a.render(d, opts)
}

func (a *app) render(d recurrence.Descriptor, opts options) error {
	today := civil.DateOf(a.now())

	switch {
	case opts.rule:
		text, err := a.engine.RuleText(d)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.stdout, text)
		return err

	case opts.next:
		from, err := dateOr(opts.from, today)
		if err != nil {
			return err
		}
		next, err := a.engine.NextDue(d, from)
		if err != nil {
			return err
		}
		if date, ok := next.Get(); ok {
			_, err = fmt.Fprintln(a.stdout, date)
		} else {
			_, err = fmt.Fprintln(a.stdout, "none")
		}
		return err
	}

	window, err := a.window(opts, today)
	if err != nil {
		return err
	}
	dates, err := a.engine.Expand(d, window)
	if err != nil {
		return err
	}

	if opts.ics {
		occurrences := make([]domain.Occurrence, len(dates))
		for i, date := range dates {
			occurrences[i] = domain.Occurrence{Name: opts.name, Date: date}
		}
		return calendar.Encode(a.stdout, opts.name, occurrences, a.now())
	}

	for _, date := range dates {
		if _, err := fmt.Fprintln(a.stdout, date); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) window(opts options, today civil.Date) (recurrence.Window, error) {
	start, err := dateOr(opts.start, today)
	if err != nil {
		return recurrence.Window{}, err
	}
	end, err := dateOr(opts.end, start.AddDays(finance.DefaultPreviewDays))
	if err != nil {
		return recurrence.Window{}, err
	}
	return recurrence.NewWindow(start, end)
}

func dateOr(raw string, fallback civil.Date) (civil.Date, error) {
	if raw == "" {
		return fallback, nil
	}
	return recurrence.ParseDate(raw)
}
