package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL needs. *App satisfies it.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Refresh(ctx context.Context) error
	Status(ctx context.Context) error
	Upload(ctx context.Context, path, url string) error
	Download(ctx context.Context, url, name string) error
	Logout(ctx context.Context) error
}

// runREPL reads commands from scanner until EOF, "exit" or "quit":
//
//	Not logged in:
//	  help, register, login, status, exit | quit
//
//	Logged in:
//	  help, status, refresh,
//	  upload <file> <url>, download <url> [name],
//	  logout, exit | quit
//
// Command errors are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("objsync %s> ", statusFn()))
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
				printlnFn("Available commands: status, refresh, upload <file> <url>, download <url> [name], logout, exit")
			} else {
				printlnFn("Available commands: register, login, status, exit")
			}

		case "register":
			err = a.Register(ctx)

		case "login":
			err = a.Login(ctx)

		case "status":
			err = a.Status(ctx)

		case "refresh":
			err = a.Refresh(ctx)

		case "upload":
			if len(args) != 2 {
				printlnFn("Usage: upload <file> <url>")
				continue
			}
			err = a.Upload(ctx, args[0], args[1])

		case "download":
			if len(args) < 1 || len(args) > 2 {
				printlnFn("Usage: download <url> [name]")
				continue
			}
			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			err = a.Download(ctx, args[0], name)

		case "logout":
			err = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
