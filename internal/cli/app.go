// Package cli implements the servicedesk command line.
//
// Every command runs against the complaint book and staff directory in
// DATA_DIR. Users identify themselves either per command (--user/--pin) or
// once with "servicedesk login", which stores a signed session token next to
// the data.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"servicedesk/internal/auth"
	"servicedesk/internal/complaint"
	"servicedesk/internal/config"
	"servicedesk/internal/dates"
	"servicedesk/internal/errors"
	"servicedesk/internal/manifest"
	"servicedesk/internal/storage"
	"servicedesk/internal/telegram"

	flag "github.com/spf13/pflag"
)

// sessionKey is the store key holding the current login token.
const sessionKey = "session"

// App holds what a run needs from the outside world. Zero fields get
// production defaults.
type App struct {
	Config *config.Config

	// Now is the clock for dates, aging and tokens. Defaults to time.Now.
	Now func() time.Time

	Out io.Writer
	Err io.Writer

	// Printer turns manifest HTML into PDF. Defaults to headless Chrome.
	Printer manifest.Printer

	// Telegram receives reports. Defaults to a client built from Config,
	// which is nil (and a no-op) when Telegram is not configured.
	Telegram *telegram.Client

	// HashCost overrides the bcrypt cost for new PINs.
	HashCost int
}

// env is the state of one command run.
type env struct {
	app     *App
	cfg     *config.Config
	out     io.Writer
	norm    *dates.Normalizer
	store   storage.Store
	book    *complaint.Book
	dir     *auth.Directory
	tokens  *auth.TokenManager
	catalog complaint.Catalog

	user string
	pin  string

	observer complaint.Observer

	tg      *telegram.Client
	tgReady bool
}

// Run parses global flags, dispatches to a command and returns the exit code.
//
// Global flags (before the command name):
//
//	-u, --user   login ID for this command only
//	-p, --pin    PIN for --user
func (a *App) Run(ctx context.Context, args []string) int {
	if a.Out == nil {
		a.Out = os.Stdout
	}
	if a.Err == nil {
		a.Err = os.Stderr
	}

	global := flag.NewFlagSet("servicedesk", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	global.SetInterspersed(false)
	user := global.StringP("user", "u", "", "Login ID for this command")
	pin := global.StringP("pin", "p", "", "PIN for --user")
	help := global.BoolP("help", "h", false, "Show help")

	if err := global.Parse(args); err != nil {
		fmt.Fprintln(a.Err, "error:", err)
		a.printUsage(a.Err)
		return 1
	}

	rest := global.Args()
	if *help || len(rest) == 0 || rest[0] == "help" {
		a.printUsage(a.Out)
		return 0
	}

	cmd := findCommand(rest[0])
	if cmd == nil {
		fmt.Fprintf(a.Err, "error: unknown command %q\n", rest[0])
		a.printUsage(a.Err)
		return 1
	}

	cmdArgs, helped, err := cmd.parse(rest[1:], a.Out)
	if err != nil {
		fmt.Fprintln(a.Err, "error:", err)
		fmt.Fprintln(a.Err)
		cmd.PrintHelp(a.Err)
		return 1
	}
	if helped {
		return 0
	}

	e, err := a.open(*user, *pin)
	if err != nil {
		fmt.Fprintln(a.Err, "error:", err)
		return 1
	}

	if err := cmd.Exec(ctx, e, cmdArgs); err != nil {
		fmt.Fprintln(a.Err, "error:", err)
		return 1
	}
	return 0
}

func (a *App) printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: servicedesk [--user ID [--pin PIN]] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands() {
		fmt.Fprintln(w, c.HelpLine())
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'servicedesk <command> --help' for command flags.")
}

// open builds the per-run environment from the configuration.
func (a *App) open(user, pin string) (*env, error) {
	cfg := a.Config
	if cfg == nil {
		return nil, fmt.Errorf("no configuration")
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	e := &env{
		app:   a,
		cfg:   cfg,
		out:   a.Out,
		norm:  dates.New(loc, a.Now),
		store: store,
		user:  user,
		pin:   pin,
	}

	e.dir, err = auth.OpenDirectory(store, auth.Options{
		Key:      cfg.StaffKey,
		SeedFile: cfg.StaffFile,
		HashCost: a.HashCost,
	})
	if err != nil {
		return nil, err
	}

	e.catalog, err = complaint.LoadCatalog(cfg.ProductFile)
	if err != nil {
		return nil, err
	}

	if cfg.SessionSecret != "" {
		e.tokens = auth.NewTokenManager(cfg.SessionSecret, cfg.SessionTTL, a.Now)
	}
	return e, nil
}

// openBook loads the complaint book on first use.
func (e *env) openBook() (*complaint.Book, error) {
	if e.book != nil {
		return e.book, nil
	}
	b, err := complaint.Open(e.store, e.norm, complaint.Options{
		Key:        e.cfg.StoreKey,
		LegacyKeys: e.cfg.LegacyStoreKeys,
		Observer:   e.observer,
		Catalog:    e.catalog,
	})
	if err != nil {
		return nil, err
	}
	e.book = b
	return b, nil
}

// session resolves who is running the command.
//
// Resolution order:
//  1. --user/--pin given on the command line
//  2. The stored login token
func (e *env) session() (auth.Session, error) {
	if e.user != "" {
		return e.dir.Authenticate(e.user, e.pin)
	}

	if e.tokens == nil {
		return auth.Session{}, errors.NewAuthFailedError("", "not logged in (pass --user, or set SESSION_SECRET and run login)")
	}
	data, ok, err := e.store.Load(sessionKey)
	if err != nil {
		return auth.Session{}, errors.NewStoreError("load", sessionKey, err)
	}
	token := strings.TrimSpace(string(data))
	if !ok || token == "" {
		return auth.Session{}, errors.NewAuthFailedError("", "not logged in")
	}
	return e.dir.Resume(e.tokens, token)
}

// require resolves the session and rejects technicians for office actions.
func (e *env) require(action string) (auth.Session, error) {
	s, err := e.session()
	if err != nil {
		return auth.Session{}, err
	}
	if err := s.Authorize(action); err != nil {
		return auth.Session{}, err
	}
	return s, nil
}

// visible returns the records the session may see, in stored order.
func (e *env) visible(s auth.Session) ([]complaint.Record, error) {
	book, err := e.openBook()
	if err != nil {
		return nil, err
	}
	var out []complaint.Record
	for _, r := range book.Records() {
		if s.CanSee(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// record fetches one record the session may see. Records assigned to
// someone else look missing to a technician.
func (e *env) record(s auth.Session, id string) (complaint.Record, error) {
	book, err := e.openBook()
	if err != nil {
		return complaint.Record{}, err
	}
	r, err := book.Get(id)
	if err != nil {
		return complaint.Record{}, err
	}
	if !s.CanSee(r) {
		return complaint.Record{}, errors.NewNotFoundError(id)
	}
	return r, nil
}

// telegram returns the report client, built once per run. It may be nil.
func (e *env) telegram() *telegram.Client {
	if !e.tgReady {
		e.tg = e.app.Telegram
		if e.tg == nil {
			e.tg = telegram.NewClient(e.cfg.TelegramBotToken, e.cfg.TelegramChatID, e.cfg.DebugMode)
		}
		e.tgReady = true
	}
	return e.tg
}

func (e *env) printf(format string, a ...any) {
	fmt.Fprintf(e.out, format, a...)
}

func (e *env) println(a ...any) {
	fmt.Fprintln(e.out, a...)
}
