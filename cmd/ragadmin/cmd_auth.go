package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jrsteele09/go-rag-admin/sessions"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func loginCmd(c *cli) *cobra.Command {
	var username string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the token pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return fmt.Errorf("--username is required")
			}
			password, err := readPassword(cmd, passwordStdin)
			if err != nil {
				return err
			}
			if err := c.app.manager.Login(cmd.Context(), username, password); err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username or email")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

// readPassword prompts without echo on a terminal and otherwise reads one line.
func readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(interface{ Fd() uintptr }); ok && !fromStdin && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(pw), nil
	}

	lr, ok := in.(interface{ ReadString(byte) (string, error) })
	if !ok {
		lr = bufio.NewReader(in)
	}
	line, err := lr.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func logoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored token pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.manager.Logout(cmd.Context()); err != nil {
				return err
			}
			successColor.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func whoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account the session belongs to",
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := c.app.users.Current(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			headerColor.Fprintln(out, "  Identity")
			printField(out, "ID", me.ID)
			printField(out, "Name", me.DisplayName)
			printField(out, "User code", me.UserCode)
			printField(out, "Role", me.Role)
			return nil
		},
	}
}

func statusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the local session state without contacting the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := c.app.manager.Status(cmd.Context())
			if err != nil {
				return err
			}
			writeStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func writeStatus(out io.Writer, status sessions.Status) {
	headerColor.Fprintln(out, "  Session")
	if !status.LoggedIn {
		warnColor.Fprintln(out, "  not logged in")
		if status.Expired {
			printField(out, "Expired", status.Reason)
		}
		return
	}
	printField(out, "Refreshable", status.CanRefresh)
	if status.ExpiresAt.IsZero() {
		printField(out, "Expires", "unknown")
	} else {
		printField(out, "Expires", fmt.Sprintf("%s (in %s)", status.ExpiresAt.Local().Format(time.RFC3339), formatDuration(time.Until(status.ExpiresAt))))
	}
	printField(out, "Next refresh", formatDuration(status.NextRefresh))
}
