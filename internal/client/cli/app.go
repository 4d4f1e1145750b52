package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/assetflow/internal/client/api"
	"github.com/dmitrijs2005/assetflow/internal/client/models"
	"github.com/dmitrijs2005/assetflow/internal/client/store"
	"github.com/dmitrijs2005/assetflow/internal/logging"
)

// sessionService is the part of session.Manager the console drives.
type sessionService interface {
	RestoreSession(ctx context.Context)
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) error
	Login(ctx context.Context, email, password string) error
	Signup(ctx context.Context, email, password, fullName string) error
	SignOut(ctx context.Context)
	Phase() models.Phase
	User() *models.User
	PendingEmail(ctx context.Context) string
	AdoptUser(ctx context.Context, user *models.User) error
	Close()
}

// collectionStore is the part of store.Store the console drives.
type collectionStore interface {
	RefreshAll(ctx context.Context) (store.Snapshot, error)
	Create(ctx context.Context, name models.CollectionName, payload models.Record) (models.Record, error)
	Update(ctx context.Context, name models.CollectionName, id string, payload models.Record) (models.Record, error)
	Remove(ctx context.Context, name models.CollectionName, id string) error
	MarkAllNotificationsRead(ctx context.Context) (string, error)
	Collection(name models.CollectionName) []models.Record
	Get(name models.CollectionName, id string) (models.Record, bool)
	Snapshot() store.Snapshot
	Loading() bool
}

type App struct {
	session    sessionService
	store      collectionStore
	files      api.FilesAPI
	reportsDir string
	log        logging.Logger

	reader *bufio.Reader
	out    io.Writer
	now    func() time.Time
}

// NewApp wires the console to stdin/stdout. reportsDir receives downloaded
// reports.
func NewApp(sess sessionService, st collectionStore, files api.FilesAPI, reportsDir string, logger logging.Logger) *App {
	if logger == nil {
		logger = logging.Nop()
	}
	return &App{
		session:    sess,
		store:      st,
		files:      files,
		reportsDir: reportsDir,
		log:        logger.With("component", "cli"),
		reader:     bufio.NewReader(os.Stdin),
		out:        os.Stdout,
		now:        time.Now,
	}
}

// Run restores any previous session and blocks in the REPL until the user
// exits, stdin is closed or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.session.Close()

	fmt.Fprintln(a.out, "Welcome to AssetFlow console (type 'help' for commands)")
	a.session.RestoreSession(ctx)
	if u := a.session.User(); u != nil {
		fmt.Fprintf(a.out, "Signed in as %s\n", u.DisplayName())
	}

	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.session.Phase() == models.PhaseAuthenticated
}

func (a *App) status() string {
	var parts []string
	if u := a.session.User(); u != nil && a.isLoggedIn() {
		parts = append(parts, u.Email)
	} else {
		parts = append(parts, a.session.Phase().String())
	}
	if a.store.Loading() {
		parts = append(parts, "loading")
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// fail reports err to the user and returns it.
func (a *App) fail(err error) error {
	a.println("Error:", api.Message(err))
	return err
}
