package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tartampluch/go-eventtracker/internal/config"
	"github.com/tartampluch/go-eventtracker/internal/engine"
	"github.com/tartampluch/go-eventtracker/internal/locale"
	"github.com/tartampluch/go-eventtracker/internal/server"
	"github.com/tartampluch/go-eventtracker/internal/store"
	"github.com/tartampluch/go-eventtracker/internal/tracker"
	"github.com/tartampluch/go-eventtracker/internal/widget"
	"github.com/zalando/go-keyring"
)

// app holds the dependencies shared by every subcommand.
type app struct {
	settings  *config.Settings
	store     store.Store
	svc       *tracker.Service
	localizer *locale.Localizer
	stdin     io.Reader
	stdout    io.Writer
}

// run loads the settings, opens the store and dispatches the subcommand.
func run(ctx context.Context, settingsPath string, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New(strings.TrimSpace(config.MsgUsage))
	}

	if settingsPath == "" {
		p, err := config.DefaultSettingsPath()
		if err != nil {
			return err
		}
		settingsPath = p
	}
	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		return err
	}
	settings.ApplyEnv(config.EnvFile)
	settings.Normalize(filepath.Dir(settingsPath))

	if err := os.MkdirAll(filepath.Dir(settings.DatabasePath), config.DirPermUserRWX); err != nil {
		return fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}
	st, err := store.NewSQLite(settings.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	a := &app{
		settings:  settings,
		store:     st,
		localizer: locale.New(settings.Language),
		stdin:     stdin,
		stdout:    stdout,
		svc: &tracker.Service{
			Store:     st,
			Clock:     engine.RealClock{},
			ExportDir: settings.ExportDir,
			VCards:    &engine.VCardReader{Fetcher: engine.NewHTTPFetcher()},
		},
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case config.CmdList:
		return a.list(ctx, rest)
	case config.CmdWidget:
		return a.showWidget(ctx)
	case config.CmdAdd:
		return a.add(ctx, rest)
	case config.CmdEdit:
		return a.edit(ctx, rest)
	case config.CmdDelete:
		return a.remove(ctx, rest)
	case config.CmdExport:
		return a.export(ctx)
	case config.CmdImport:
		return a.importFile(ctx, rest)
	case config.CmdImportVCard:
		return a.importVCard(ctx, rest)
	case config.CmdSetPassword:
		return a.setPassword(rest)
	case config.CmdServe:
		return a.serve(ctx)
	default:
		return fmt.Errorf("%s: %q", config.ErrUnknownCommand, cmd)
	}
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet(config.CmdList, flag.ContinueOnError)
	limit := fs.Int(config.FlagLimit, 0, config.FlagDescLimit)
	if err := fs.Parse(args); err != nil {
		return err
	}

	upcoming, err := a.svc.Upcoming(ctx)
	if err != nil {
		return err
	}
	if len(upcoming) == 0 {
		_, err := fmt.Fprintln(a.stdout, a.localizer.NoUpcoming())
		return err
	}
	if *limit > 0 && len(upcoming) > *limit {
		upcoming = upcoming[:*limit]
	}

	for _, o := range upcoming {
		age := config.WidgetAgeUnknown
		if o.AgeKnown {
			age = fmt.Sprint(o.Age)
		}
		if _, err := fmt.Fprintf(a.stdout, config.FormatListRow,
			o.Event.ID, o.Event.Name, o.Event.Date, a.localizer.CategoryLabel(o.Event.Category),
			age, a.localizer.DaysLabel(o.DaysUntil)); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) showWidget(ctx context.Context) error {
	view := widget.Load(ctx, a.store, a.svc.Clock, a.localizer)
	return view.WriteText(a.stdout)
}

// eventFlags registers the fields shared by add and edit.
type eventFlags struct {
	name   *string
	date   *string
	typ    *string
	noYear *bool
}

func newEventFlags(fs *flag.FlagSet) eventFlags {
	return eventFlags{
		name:   fs.String(config.FlagName, "", config.FlagDescName),
		date:   fs.String(config.FlagDate, "", config.FlagDescDate),
		typ:    fs.String(config.FlagType, string(engine.Birthday), config.FlagDescType),
		noYear: fs.Bool(config.FlagNoYear, false, config.FlagDescNoY),
	}
}

func (f eventFlags) event() (engine.Event, error) {
	if *f.name == "" {
		return engine.Event{}, fmt.Errorf("%s: -%s", config.ErrMissingArg, config.FlagName)
	}
	if *f.date == "" {
		return engine.Event{}, fmt.Errorf("%s: -%s", config.ErrMissingArg, config.FlagDate)
	}
	date, err := engine.ParseDate(*f.date)
	if err != nil {
		return engine.Event{}, err
	}
	category, ok := engine.ParseCategory(*f.typ)
	if !ok {
		return engine.Event{}, fmt.Errorf("%s: %q", config.ErrCategoryUnknown, *f.typ)
	}
	return engine.Event{Name: *f.name, Date: date, Category: category, YearKnown: !*f.noYear}, nil
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet(config.CmdAdd, flag.ContinueOnError)
	ef := newEventFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ev, err := ef.event()
	if err != nil {
		return err
	}
	created, err := a.svc.Add(ctx, ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.stdout, config.FormatCreated, created.ID)
	return err
}

func (a *app) edit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet(config.CmdEdit, flag.ContinueOnError)
	id := fs.Int64(config.FlagID, 0, config.FlagDescID)
	ef := newEventFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return errors.New(config.ErrInvalidID)
	}
	ev, err := ef.event()
	if err != nil {
		return err
	}
	ev.ID = *id
	return a.svc.Edit(ctx, ev)
}

func (a *app) remove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet(config.CmdDelete, flag.ContinueOnError)
	id := fs.Int64(config.FlagID, 0, config.FlagDescID)
	all := fs.Bool(config.FlagAll, false, config.FlagDescAll)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *all {
		return a.svc.RemoveAll(ctx)
	}
	if *id <= 0 {
		return errors.New(config.ErrInvalidID)
	}
	return a.svc.Remove(ctx, *id)
}

func (a *app) export(ctx context.Context) error {
	path, err := a.svc.Export(ctx)
	fmt.Fprintln(a.stdout, a.localizer.ExportResult(path, err))
	return err
}

func (a *app) importFile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet(config.CmdImport, flag.ContinueOnError)
	file := fs.String(config.FlagFile, "", config.FlagDescFile)
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := *file
	if path == "" && fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if path == "" {
		return fmt.Errorf("%s: -%s", config.ErrMissingArg, config.FlagFile)
	}

	n, err := a.svc.Import(ctx, path)
	fmt.Fprintln(a.stdout, a.localizer.ImportResult(n, err))
	return err
}

// importVCard reads a vCard collection given on the command line or, by
// default, the source configured in the settings file.
func (a *app) importVCard(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet(config.CmdImportVCard, flag.ContinueOnError)
	file := fs.String(config.FlagFile, "", config.FlagDescFile)
	url := fs.String(config.FlagURL, "", config.FlagDescURL)
	user := fs.String(config.FlagUser, "", config.FlagDescUser)
	if err := fs.Parse(args); err != nil {
		return err
	}

	vc := a.settings.VCard
	src := engine.SourceConfig{Mode: vc.Mode, LocalPath: vc.LocalPath, WebURL: vc.URL, WebUser: vc.Username}
	switch {
	case *file != "":
		src = engine.SourceConfig{Mode: config.SourceModeLocal, LocalPath: *file}
	case *url != "":
		src = engine.SourceConfig{Mode: config.SourceModeWeb, WebURL: *url, WebUser: *user}
	}

	if src.Mode == config.SourceModeWeb && src.WebUser != "" {
		pass, err := keyring.Get(config.KeyringService, src.WebUser)
		if err != nil {
			slog.Warn(config.MsgPassFail,
				config.LogKeyComponent, config.CompMain,
				config.LogKeyUser, src.WebUser,
				config.LogKeyError, err)
		}
		src.WebPass = pass
	}

	n, err := a.svc.ImportVCard(ctx, src)
	var statusErr *engine.StatusError
	if errors.As(err, &statusErr) && statusErr.Unauthorized() {
		err = fmt.Errorf("%s: %w", config.ErrFetchAuth, err)
	}
	fmt.Fprintln(a.stdout, a.localizer.ImportResult(n, err))
	return err
}

// setPassword stores the vCard web password in the OS keyring.
// The password is read from the first line of stdin.
func (a *app) setPassword(args []string) error {
	fs := flag.NewFlagSet(config.CmdSetPassword, flag.ContinueOnError)
	user := fs.String(config.FlagUser, a.settings.VCard.Username, config.FlagDescUser)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" {
		return fmt.Errorf("%s: -%s", config.ErrMissingArg, config.FlagUser)
	}

	fmt.Fprint(a.stdout, config.MsgEnterPassword)
	sc := bufio.NewScanner(a.stdin)
	sc.Scan()
	if err := sc.Err(); err != nil {
		return err
	}

	if err := keyring.Set(config.KeyringService, *user, strings.TrimRight(sc.Text(), "\r")); err != nil {
		return fmt.Errorf("%s: %w", config.ErrKeyringSet, err)
	}
	_, err := fmt.Fprint(a.stdout, config.MsgPasswordSaved)
	return err
}

func (a *app) serve(ctx context.Context) error {
	if err := a.settings.Validate(); err != nil {
		return err
	}
	if err := server.ValidateSchedule(a.settings.RefreshCron); err != nil {
		return err
	}

	gen := &engine.Generator{
		Clock:           a.svc.Clock,
		ReminderTrigger: a.settings.ReminderTrigger,
		FormatSummary:   a.localizer.Summary,
	}
	srv := server.New(a.settings.Port, a.svc, gen, a.localizer)
	srv.RefreshSpec = a.settings.RefreshCron
	return srv.Start(ctx)
}
