package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) error
	Users(ctx context.Context, args []string) error
	User(ctx context.Context, args []string) error
	Count(ctx context.Context, args []string) error
	Activate(ctx context.Context, args []string) error
	Deactivate(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Health(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, health, help, exit"
	helpLoggedIn  = "Available commands: me, users [skip] [limit] [active|inactive], user <id>, count [active|inactive], " +
		"activate <id>, deactivate <id>, delete <id>, health, logout, help, exit"
)

// runREPL starts a simple read–eval–print loop for the qaapi client.
//
// It reads a line from the provided scanner, parses the first token as the
// command and the rest as its arguments, and dispatches to methods on 'a'.
// Errors returned by commands are printed and the loop continues. The loop
// exits on scanner EOF or when the user types "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("qa %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "register":
			err = a.Register(ctx)

		case "login":
			err = a.Login(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "me":
			err = a.Me(ctx)

		case "users":
			err = a.Users(ctx, args)

		case "user":
			err = a.User(ctx, args)

		case "count":
			err = a.Count(ctx, args)

		case "activate":
			err = a.Activate(ctx, args)

		case "deactivate":
			err = a.Deactivate(ctx, args)

		case "delete":
			err = a.Delete(ctx, args)

		case "health":
			err = a.Health(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn(describe(err))
		}
	}
}

func describe(err error) string {
	if errors.Is(err, errUsage) {
		return "Usage: " + strings.TrimPrefix(err.Error(), errUsage.Error()+": ")
	}
	return "Error: " + err.Error()
}
