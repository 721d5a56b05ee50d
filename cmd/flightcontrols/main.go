// cmd/flightcontrols/main.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// flightcontrols flies simulated aircraft under text clearances read from
// standard input, one per line:
//
//	SPAWN AAL123               add an arrival set up to intercept the localizer
//	AAL123 FH 270 D 40         send a clearance to an aircraft
//	AAL123 ILS 40.6398/-73.7789 043 13 3.0
//	STATUS                     list the aircraft
//	DUMP AAL123                dump everything about one aircraft
//	HISTORY                    list finished approaches and holds
//	QUIT
//
// With -parse, it prints what a single message parses to and exits.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atctrainer/flightcontrols/clearance"
	"github.com/atctrainer/flightcontrols/log"
	"github.com/atctrainer/flightcontrols/sim"

	"github.com/goforj/godump"
	"golang.org/x/sync/errgroup"
)

var (
	logLevel    = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir      = flag.String("logdir", "", "log file directory")
	configFile  = flag.String("config", "", "JSON file with controller tuning and simulation settings")
	parseText   = flag.String("parse", "", "print the parsed form of the given clearance and exit")
	historyFile = flag.String("history", "", "file to save the session history to at exit")
)

func main() {
	flag.Parse()

	if *parseText != "" {
		dumpParse(os.Stdout, *parseText)
		return
	}

	lg := log.New(*logLevel, *logDir)
	defer lg.CatchAndReportCrash()

	cfg, err := sim.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	s, err := sim.NewSim(cfg, lg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return s.Run(ctx) })

	// Command prints the responses to clearances itself.
	sub := s.Events.Subscribe(sim.SessionStartedEvent, sim.SessionEndedEvent,
		sim.AircraftSpawnedEvent, sim.AircraftRemovedEvent)
	eg.Go(func() error {
		printEvents(ctx, os.Stdout, sub)
		return nil
	})

	// The scanner can't be interrupted, so it isn't part of the group;
	// it ends the run at EOF or QUIT.
	go func() {
		readCommands(os.Stdin, os.Stdout, s)
		cancel()
	}()

	if err := eg.Wait(); err != nil {
		lg.Errorf("%v", err)
	}
	sub.Unsubscribe()

	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	if err := s.Shutdown(sctx); err != nil {
		lg.Warnf("shutdown: %v", err)
	}

	if *historyFile != "" {
		if err := s.SaveHistory(*historyFile); err != nil {
			lg.Errorf("%s: %v", *historyFile, err)
		} else {
			fmt.Printf("Saved %d sessions to %s\n", len(s.History()), *historyFile)
		}
	}
}

func dumpParse(w io.Writer, text string) {
	if ils, ok, err := clearance.ParseILS(text); ok {
		if err != nil {
			fmt.Fprintf(w, "ILS: %v\n", err)
		} else {
			godump.Fdump(w, ils)
		}
		return
	}

	c, err := clearance.Parse(text)
	if err != nil {
		fmt.Fprintf(w, "%v\n", err)
		return
	}
	if !c.Actionable() {
		fmt.Fprintln(w, "(not a clearance)")
	} else {
		fmt.Fprintln(w, c)
	}
	godump.Fdump(w, c)
}

func printEvents(ctx context.Context, w io.Writer, sub *sim.EventsSubscription) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, ev := range sub.Get() {
				fmt.Fprintf(w, "%s %s\n", ev.Time.Format(time.TimeOnly), ev)
			}
		}
	}
}

func readCommands(r io.Reader, w io.Writer, s *sim.Sim) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if quit := execute(w, s, sc.Text()); quit {
			return
		}
	}
}
