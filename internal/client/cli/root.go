package cli

import (
	"bufio"
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	s := ""
	if u := a.authService.Username(); u != "" {
		s = u + " "
	}
	if m := a.mode(); m != "" {
		s = s + string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root resumes any saved session, starts the connectivity watcher and runs
// the REPL on stdin until the user exits.
func (a *App) Root(ctx context.Context) {
	a.printf("qaapi client for %s (type 'help' for commands)\n", a.config.ServerBaseURL)

	a.restoreSession(ctx)
	a.checkOnline(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}
