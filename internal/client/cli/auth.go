package cli

import (
	"context"
	"errors"
	"os"

	"github.com/dmitrijs2005/assetflow/internal/client/session"
	"github.com/dmitrijs2005/assetflow/internal/common"
	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// readSecret reads a password without echo when stdin is a terminal and
// as a plain line otherwise. The caller wipes the result.
func (a *App) readSecret() ([]byte, error) {
	if isTerminal(int(os.Stdin.Fd())) {
		return getPassword(a.out)
	}
	s, err := getSimpleText(a.reader, "Enter password", a.out)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func (a *App) askEmail(ctx context.Context) (string, error) {
	return GetTextWithDefault(a.reader, "Enter email", a.session.PendingEmail(ctx), a.out)
}

// authError prints errors the session manager does not notify about
// itself (input validation) and returns err unchanged.
func (a *App) authError(err error) error {
	switch {
	case err == nil:
	case errors.Is(err, session.ErrInvalidCredentials),
		errors.Is(err, session.ErrInvalidOTPCode),
		errors.Is(err, session.ErrWeakPassword),
		errors.Is(err, session.ErrAlreadySignedIn):
		a.println("Error:", err.Error())
	}
	return err
}

// RequestOTP prompts for an email and asks the backend to send a code.
func (a *App) RequestOTP(ctx context.Context) error {
	email, err := a.askEmail(ctx)
	if err != nil {
		return err
	}
	return a.authError(a.session.RequestOTP(ctx, email))
}

// VerifyOTP prompts for the email and the emailed code and signs in.
func (a *App) VerifyOTP(ctx context.Context) error {
	email, err := a.askEmail(ctx)
	if err != nil {
		return err
	}
	code, err := getSimpleText(a.reader, "Enter the 6-digit code", a.out)
	if err != nil {
		return err
	}
	return a.authError(a.session.VerifyOTP(ctx, email, code))
}

// Login prompts for credentials and signs in with a password.
// The password is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := a.askEmail(ctx)
	if err != nil {
		return err
	}
	password, err := a.readSecret()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	return a.authError(a.session.Login(ctx, email, string(password)))
}

// Signup prompts for email, optional full name and password and creates
// the account.
func (a *App) Signup(ctx context.Context) error {
	email, err := a.askEmail(ctx)
	if err != nil {
		return err
	}
	fullName, err := getSimpleText(a.reader, "Full name (optional)", a.out)
	if err != nil {
		return err
	}
	password, err := a.readSecret()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	return a.authError(a.session.Signup(ctx, email, string(password), fullName))
}

// Logout signs out. It never fails from the user's point of view.
func (a *App) Logout(ctx context.Context) error {
	a.session.SignOut(ctx)
	a.println("Signed out")
	return nil
}

// Status prints who is signed in.
func (a *App) Status(ctx context.Context) error {
	u := a.session.User()
	if u == nil || !a.isLoggedIn() {
		a.printf("Not signed in (%s)\n", a.session.Phase())
		return nil
	}
	a.printf("Signed in as %s <%s>", u.DisplayName(), u.Email)
	if u.Role != "" {
		a.printf(", role %s", u.Role)
	}
	a.println()
	return nil
}
