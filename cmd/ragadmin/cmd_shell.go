package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-rag-admin/sessions"
	"github.com/spf13/cobra"
)

const shellPrompt = "ragadmin> "

func shellCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session with proactive refresh and inactivity expiry",
		Long: `Runs ragadmin commands read from stdin while keeping the session alive.
The access token is refreshed before it expires and the session ends after the
configured period without input. Type "help" for commands and "exit" to leave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runShell(ctx, c, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

// shellInput lets a command run from the shell read further lines, such as a password,
// from the reader the shell owns. Fd exposes the terminal for no-echo prompts.
type shellInput struct {
	*bufio.Reader
	file *os.File
}

func (s shellInput) Fd() uintptr {
	if s.file == nil {
		return ^uintptr(0)
	}
	return s.file.Fd()
}

// readLines reads one line from r each time more is signalled, so a running command can use
// stdin in between. The goroutine exits and closes the returned channel once done is closed.
func readLines(r *bufio.Reader, more <-chan struct{}, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			select {
			case <-done:
				return
			case <-more:
			}
			line, err := r.ReadString('\n')
			if line != "" {
				select {
				case lines <- strings.TrimRight(line, "\r\n"):
				case <-done:
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return lines
}

func runShell(ctx context.Context, c *cli, in io.Reader, out, errOut io.Writer) error {
	fmt.Fprintln(out, figure.NewFigure(appName, "cybermedium", true).String())

	manager := c.app.manager
	if err := manager.Start(ctx); err != nil {
		return err
	}
	defer manager.Close()

	expiries, unsubscribe := manager.Broadcaster().Subscribe()
	defer unsubscribe()

	activity := make(chan sessions.EventKind, 1)
	detach := manager.Monitor().Attach(activity)
	defer detach()

	input := shellInput{Reader: bufio.NewReader(in)}
	if f, ok := in.(*os.File); ok {
		input.file = f
	}

	more := make(chan struct{}, 1)
	done := make(chan struct{})
	defer close(done)
	lines := readLines(input.Reader, more, done)

	awaitingAck := false
	next := func() {
		if !awaitingAck {
			fmt.Fprint(out, shellPrompt)
		}
		more <- struct{}{}
	}
	next()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil

		case event := <-expiries:
			fmt.Fprintln(out)
			warnColor.Fprintf(out, "%s (%s)\n", sessions.Message, event.Reason)
			fmt.Fprint(out, "Press Enter to continue")
			awaitingAck = true

		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return nil
			}
			select {
			case activity <- sessions.EventKeyPress:
			default:
			}

			if awaitingAck {
				awaitingAck = false
				if err := manager.Acknowledge(ctx); err != nil {
					warnColor.Fprintf(errOut, "Error: %v\n", err)
				}
				fmt.Fprintln(out, `Log in again with "login -u <username>".`)
				next()
				continue
			}

			fields := strings.Fields(line)
			switch {
			case len(fields) == 0:
			case fields[0] == "exit" || fields[0] == "quit":
				return nil
			case fields[0] == "shell":
				warnColor.Fprintln(errOut, "Already in the shell")
			default:
				runShellCommand(ctx, c, fields, input, out, errOut)
			}
			next()
		}
	}
}

func runShellCommand(ctx context.Context, c *cli, args []string, in io.Reader, out, errOut io.Writer) {
	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	if err := root.ExecuteContext(ctx); err != nil {
		warnColor.Fprintf(errOut, "Error: %v\n", err)
	}
}
