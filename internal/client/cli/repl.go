package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	RequestOTP(ctx context.Context) error
	VerifyOTP(ctx context.Context) error
	Login(ctx context.Context) error
	Signup(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Create(ctx context.Context, args []string) error
	Update(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Refresh(ctx context.Context) error
	MarkRead(ctx context.Context) error
	Dashboard(ctx context.Context) error
	Report(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	Profile(ctx context.Context, args []string) error
}

const (
	helpSignedOut = "Available commands: otp, verify, login, signup, status, exit"
	helpSignedIn  = "Available commands: (l)ist, show, create, update, delete, refresh, markread, dashboard, report, upload, profile, status, logout, exit"
)

// runREPL starts a read–eval–print loop for the AssetFlow console.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a' with the remaining tokens. The loop exits on
// EOF, when ctx is done, or when the user types "exit" or "quit".
//
// Prompt & Commands
//
//	Signed out:
//	  - help                      show available commands
//	  - otp                       email a one-time code
//	  - verify                    sign in with the code
//	  - login                     sign in with a password
//	  - signup                    create an account
//	  - exit | quit               leave the program
//
//	Signed in:
//	  - list <collection> [search] [field=value ...] [sort=field[:desc]]
//	  - show <collection> <id>
//	  - create <collection> [field=value ...]
//	  - update <collection> <id> field=value ...
//	  - delete <collection> <id>
//	  - refresh | markread | dashboard
//	  - report csv|pdf|json
//	  - upload <image path>
//	  - profile [field=value ...]
//	  - logout
//
// Errors returned by handlers are not printed here; handlers report their
// own failures. This keeps the loop focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("af %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpSignedOut)
			}
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		case "status":
			_ = a.Status(ctx)
			continue
		}

		if !a.isLoggedIn() {
			switch cmd {
			case "otp":
				_ = a.RequestOTP(ctx)
			case "verify":
				_ = a.VerifyOTP(ctx)
			case "login":
				_ = a.Login(ctx)
			case "signup":
				_ = a.Signup(ctx)
			default:
				printlnFn("Unknown command or not signed in:", cmd)
			}
			continue
		}

		switch cmd {
		case "l", "list":
			_ = a.List(ctx, args)
		case "show":
			_ = a.Show(ctx, args)
		case "create":
			_ = a.Create(ctx, args)
		case "update":
			_ = a.Update(ctx, args)
		case "delete":
			_ = a.Delete(ctx, args)
		case "refresh":
			_ = a.Refresh(ctx)
		case "markread":
			_ = a.MarkRead(ctx)
		case "dashboard":
			_ = a.Dashboard(ctx)
		case "report":
			_ = a.Report(ctx, args)
		case "upload":
			_ = a.Upload(ctx, args)
		case "profile":
			_ = a.Profile(ctx, args)
		case "logout":
			_ = a.Logout(ctx)
		case "otp", "verify", "login", "signup":
			printlnFn("Already signed in; logout first")
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}
