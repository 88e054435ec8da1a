// Command agenda renders a trip's composed activity calendar in the
// terminal. It drives the same dashboard engine the interactive clients
// use: filters persist across runs, RSVP submissions apply optimistically,
// and watch mode keeps the view fresh on a cron schedule.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	boltfilterstore "github.com/tripsync/planner/internal/adapters/bolt/filterstore"
	memfilterstore "github.com/tripsync/planner/internal/adapters/memory/filterstore"
	"github.com/tripsync/planner/internal/client"
	"github.com/tripsync/planner/internal/dashboard"
	"github.com/tripsync/planner/internal/domain"
	"github.com/tripsync/planner/internal/ics"
	"github.com/tripsync/planner/internal/platform/config"
	"github.com/tripsync/planner/internal/ports/out/filterstore"
	"github.com/tripsync/planner/internal/view"
)

type cliFlags struct {
	configPath string
	server     string
	trip       int64
	user       int64
	token      string
	viewMode   string
	icsPath    string
	rsvp       string
	watch      bool
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "agenda.yaml", "path to the agenda config file")
	flag.StringVar(&f.server, "server", "", "planner API base URL (overrides config)")
	flag.Int64Var(&f.trip, "trip", 0, "trip id (overrides config)")
	flag.Int64Var(&f.user, "user", 0, "acting user id (overrides config)")
	flag.StringVar(&f.token, "token", "", "bearer token (overrides config)")
	flag.StringVar(&f.viewMode, "view", "", "calendar view: day, week, month or list (overrides config)")
	flag.StringVar(&f.icsPath, "ics", "", "write an ICS export of the trip to this path (overrides config)")
	flag.StringVar(&f.rsvp, "rsvp", "", "submit an RSVP before rendering, as activityID:ACTION")
	flag.BoolVar(&f.watch, "watch", false, "keep running and refresh on the configured schedule")
	flag.Parse()
	return f
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	f := parseFlags()

	cfg, err := config.LoadAgendaConfig(f.configPath)
	if err != nil {
		log.WithError(err).WithField("config", f.configPath).Fatal("load config")
	}
	applyOverrides(cfg, f)

	mode := view.ViewMode(cfg.View)
	if !mode.Valid() {
		log.WithField("view", cfg.View).Fatal("unknown view mode")
	}
	loc, err := loadLocation(cfg.Timezone)
	if err != nil {
		log.WithError(err).WithField("timezone", cfg.Timezone).Fatal("unknown timezone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli := client.New(cfg.ServerURL, client.Options{Token: cfg.Token, User: domain.UserID(cfg.User)})
	if err := cli.Healthy(ctx); err != nil {
		log.WithError(err).WithField("server", cfg.ServerURL).Fatal("planner api unreachable")
	}

	var filters filterstore.Store
	if cfg.FiltersDB != "" {
		bs, err := boltfilterstore.Open(cfg.FiltersDB)
		if err != nil {
			log.WithError(err).WithField("path", cfg.FiltersDB).Fatal("open filter store")
		}
		defer bs.Close()
		filters = bs
	} else {
		filters = memfilterstore.NewStore()
	}

	trip, err := cli.GetTrip(ctx, domain.TripID(cfg.Trip))
	if err != nil {
		log.WithError(err).WithField("trip", cfg.Trip).Fatal("load trip")
	}

	eng := dashboard.NewEngine(ctx, dashboard.Config{
		API:     cli,
		Viewer:  domain.UserID(cfg.User),
		Trip:    trip,
		Filters: filters,
		OnNotice: func(n dashboard.Notice) {
			log.WithFields(logrus.Fields{"kind": string(n.Kind), "activity": n.ActivityID}).Warn("notice")
		},
	})
	defer eng.Close()
	eng.SetView(mode, time.Now().In(loc))

	run := func() error {
		rctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := eng.Refresh(rctx); err != nil {
			return err
		}
		render(os.Stdout, eng.Snapshot(), loc)
		if cfg.ICSPath != "" {
			if err := writeICS(rctx, cli, trip, cfg.ICSPath); err != nil {
				return fmt.Errorf("write ics: %w", err)
			}
		}
		return nil
	}

	if f.rsvp != "" {
		// The submission needs the activity cached, so refresh first and
		// render only the post-submit state.
		rctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if err := eng.Refresh(rctx); err != nil {
			cancel()
			log.WithError(err).Fatal("refresh")
		}
		id, action, err := parseRSVP(f.rsvp)
		if err != nil {
			cancel()
			log.WithError(err).Fatal("bad -rsvp value")
		}
		if err := eng.SubmitRSVP(rctx, id, action); err != nil {
			log.WithError(err).WithField("activity", id).Error("rsvp not applied")
		} else {
			log.WithFields(logrus.Fields{"activity": id, "action": string(action)}).Info("rsvp applied")
		}
		cancel()
	}

	if err := run(); err != nil {
		log.WithError(err).Fatal("refresh")
	}
	if !f.watch {
		return
	}

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.Refresh, func() {
		if err := run(); err != nil {
			log.WithError(err).Error("refresh")
		}
	}); err != nil {
		log.WithError(err).WithField("refresh", cfg.Refresh).Fatal("invalid refresh schedule")
	}
	sched.Start()
	log.WithFields(logrus.Fields{"refresh": cfg.Refresh, "trip": trip.ID}).Info("watching")

	<-ctx.Done()
	<-sched.Stop().Done()
}

func applyOverrides(cfg *config.AgendaConfig, f cliFlags) {
	if f.server != "" {
		cfg.ServerURL = f.server
	}
	if f.trip != 0 {
		cfg.Trip = f.trip
	}
	if f.user != 0 {
		cfg.User = f.user
	}
	if f.token != "" {
		cfg.Token = f.token
	}
	if f.viewMode != "" {
		cfg.View = f.viewMode
	}
	if f.icsPath != "" {
		cfg.ICSPath = f.icsPath
	}
}

// parseRSVP splits "41:ACCEPT" into its parts. Actions are accepted in any
// case.
func parseRSVP(raw string) (domain.ActivityID, domain.RSVPAction, error) {
	idStr, actionStr, ok := strings.Cut(raw, ":")
	if !ok {
		return 0, "", fmt.Errorf("want activityID:ACTION, got %q", raw)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
	if err != nil || id <= 0 {
		return 0, "", fmt.Errorf("bad activity id %q", idStr)
	}
	action := domain.RSVPAction(strings.ToUpper(strings.TrimSpace(actionStr)))
	if !action.Valid() {
		return 0, "", fmt.Errorf("unknown action %q", actionStr)
	}
	return domain.ActivityID(id), action, nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// writeICS exports the whole trip, not the filtered view: a calendar feed
// subscriber wants every dated activity regardless of the current filters.
func writeICS(ctx context.Context, cli *client.Client, trip domain.Trip, path string) error {
	acts, err := cli.ListActivities(ctx, trip.ID, nil)
	if err != nil {
		return err
	}
	data, err := ics.Export(trip, acts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
