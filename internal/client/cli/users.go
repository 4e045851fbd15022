package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/qaapi/internal/client/models"
)

var errUsage = errors.New("usage")

func usage(s string) error {
	return fmt.Errorf("%w: %s", errUsage, s)
}

// Me prints the logged in user.
func (a *App) Me(ctx context.Context) error {
	u, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	a.printUser(u)
	return nil
}

// Users lists accounts: users [skip] [limit] [active|inactive].
func (a *App) Users(ctx context.Context, args []string) error {
	var q models.UserQuery
	for i, arg := range args {
		if active, ok := parseActive(arg); ok {
			q.IsActive = &active
			continue
		}
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			return usage("users [skip] [limit] [active|inactive]")
		}
		if i == 0 {
			q.Skip = n
		} else {
			q.Limit = n
		}
	}

	users, err := a.api.ListUsers(ctx, q)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tACTIVE\tSUPERUSER")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%t\n", u.ID, u.Username, u.Email, u.IsActive, u.IsSuperuser)
	}
	return tw.Flush()
}

// User prints one account: user <id>.
func (a *App) User(ctx context.Context, args []string) error {
	id, err := parseID(args, "user <id>")
	if err != nil {
		return err
	}
	u, err := a.api.GetUser(ctx, id)
	if err != nil {
		return err
	}
	a.printUser(u)
	return nil
}

// Count prints the number of accounts: count [active|inactive].
func (a *App) Count(ctx context.Context, args []string) error {
	var filter *bool
	if len(args) > 0 {
		active, ok := parseActive(args[0])
		if !ok {
			return usage("count [active|inactive]")
		}
		filter = &active
	}

	n, err := a.api.CountUsers(ctx, filter)
	if err != nil {
		return err
	}
	a.printf("%d\n", n)
	return nil
}

func (a *App) Activate(ctx context.Context, args []string) error {
	return a.setActive(ctx, args, true)
}

func (a *App) Deactivate(ctx context.Context, args []string) error {
	return a.setActive(ctx, args, false)
}

func (a *App) setActive(ctx context.Context, args []string, active bool) error {
	cmd := "deactivate <id>"
	if active {
		cmd = "activate <id>"
	}
	id, err := parseID(args, cmd)
	if err != nil {
		return err
	}

	u, err := a.api.SetUserActive(ctx, id, active)
	if err != nil {
		return err
	}
	a.printf("%s is_active=%t\n", u.Username, u.IsActive)
	return nil
}

// Delete removes an account after confirmation: delete <id>.
func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := parseID(args, "delete <id>")
	if err != nil {
		return err
	}

	ok, err := confirm(a.reader, fmt.Sprintf("Delete user %d?", id), a.out)
	if err != nil {
		return err
	}
	if !ok {
		a.printf("Cancelled\n")
		return nil
	}

	if err := a.api.DeleteUser(ctx, id); err != nil {
		return err
	}
	a.printf("Deleted user %d\n", id)
	return nil
}

// Health pings the server and reports the round trip time.
func (a *App) Health(ctx context.Context) error {
	start := time.Now()
	if err := a.authService.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return err
	}
	a.setMode(ModeOnline)
	a.printf("healthy (%s)\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func (a *App) printUser(u *models.User) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id:\t%d\n", u.ID)
	fmt.Fprintf(tw, "username:\t%s\n", u.Username)
	fmt.Fprintf(tw, "name:\t%s\n", u.DisplayName())
	fmt.Fprintf(tw, "email:\t%s\n", u.Email)
	fmt.Fprintf(tw, "active:\t%t\n", u.IsActive)
	fmt.Fprintf(tw, "superuser:\t%t\n", u.IsSuperuser)
	fmt.Fprintf(tw, "created:\t%s\n", u.CreatedAt.Format(time.RFC3339))
	_ = tw.Flush()
}

func parseID(args []string, use string) (int64, error) {
	if len(args) != 1 {
		return 0, usage(use)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, usage(use)
	}
	return id, nil
}

func parseActive(s string) (bool, bool) {
	switch s {
	case "active":
		return true, true
	case "inactive":
		return false, true
	}
	return false, false
}
