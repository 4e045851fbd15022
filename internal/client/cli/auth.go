package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/qaapi/internal/client/client"
	"github.com/dmitrijs2005/qaapi/internal/client/models"
	"github.com/dmitrijs2005/qaapi/internal/common"
)

// getSimpleText, getPassword and confirm are indirections used to facilitate
// testing. They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var confirm = Confirm

// Register prompts for username, email, optional full name and password and
// creates the account. It does not log in.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	fullName, err := getSimpleText(a.reader, "Enter full name (optional)", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	req := models.RegisterRequest{Username: username, Email: email}
	if fullName != "" {
		req.FullName = &fullName
	}

	u, err := a.authService.Register(ctx, req, password)
	if err != nil {
		return err
	}

	a.printf("Registered %s (id %d)\n", u.Username, u.ID)
	return nil
}

// Login prompts for credentials and authenticates. The session is saved
// locally so the next start resumes it. When the server is unreachable the
// mode switches to offline.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	pair, err := a.authService.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			a.setMode(ModeOffline)
		}
		return err
	}

	a.setMode(ModeOnline)
	a.printf("Login successful, token expires in %ds\n", pair.ExpiresIn)
	return nil
}

// Logout ends the session. The local copy is wiped even if the server could
// not be told.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.printf("Logged out\n")
	return nil
}

// restoreSession resumes a saved session, if there is one.
func (a *App) restoreSession(ctx context.Context) {
	username, err := a.authService.Restore(ctx)
	if err != nil {
		if !errors.Is(err, client.ErrNotLoggedIn) {
			a.logger.Warn(ctx, "restoring session failed", "error", err)
		}
		return
	}
	a.printf("Resumed session for %s\n", username)
}
