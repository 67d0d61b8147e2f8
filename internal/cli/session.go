package cli

import (
	"context"
	"fmt"
	"strings"

	"servicedesk/internal/auth"
)

func loginCmd() *Command {
	flags := newFlags("login")
	pin := flags.StringP("pin", "p", "", "PIN (admins and developers)")

	return &Command{
		Flags: flags,
		Usage: "login <login-id> [--pin PIN]",
		Short: "Log in and keep the session for later commands",
		Long: "Log in as a staff member. Technicians need only their login ID;\n" +
			"admins and developers also need their PIN. The session is kept\n" +
			"until logout or SESSION_TTL, and needs SESSION_SECRET to be set.",
		Exec: func(_ context.Context, e *env, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("login needs exactly one login ID")
			}
			if e.tokens == nil {
				return fmt.Errorf("SESSION_SECRET is not set; pass --user on each command instead")
			}

			s, err := e.dir.Authenticate(args[0], *pin)
			if err != nil {
				return err
			}
			token, err := e.tokens.Issue(s)
			if err != nil {
				return err
			}
			if err := e.store.Save(sessionKey, []byte(token)); err != nil {
				return err
			}

			e.printf("✓ Logged in as %s (%s)\n", s.Staff.Name, s.Staff.Position)
			return nil
		},
	}
}

func logoutCmd() *Command {
	return &Command{
		Flags: newFlags("logout"),
		Usage: "logout",
		Short: "Forget the stored session",
		Exec: func(_ context.Context, e *env, _ []string) error {
			if err := e.store.Save(sessionKey, nil); err != nil {
				return err
			}
			e.println("✓ Logged out")
			return nil
		},
	}
}

func whoamiCmd() *Command {
	return &Command{
		Flags: newFlags("whoami"),
		Usage: "whoami",
		Short: "Show the current user",
		Exec: func(_ context.Context, e *env, _ []string) error {
			s, err := e.session()
			if err != nil {
				return err
			}
			e.printf("%s (%s) login %s\n", s.Staff.Name, s.Staff.Position, s.Staff.LoginID)
			return nil
		},
	}
}

func staffCmd() *Command {
	flags := newFlags("staff")
	name := flags.String("name", "", "Full name (add)")
	login := flags.String("login", "", "Login ID (add)")
	role := flags.String("role", string(auth.RoleTechnician), "ADMIN, TECHNICIAN or DEVELOPER (add)")
	pin := flags.String("new-pin", "", "PIN for the new member; required for non-technicians (add)")
	contact := flags.String("contact", "", "Phone number (add)")
	importKey := flags.String("import-key", "", "Name used for this technician in imported sheets (add)")

	return &Command{
		Flags: flags,
		Usage: "staff [list | add --name N --login ID]",
		Short: "List or register staff members",
		Exec: func(_ context.Context, e *env, args []string) error {
			sub := "list"
			if len(args) > 0 {
				sub = args[0]
			}

			switch sub {
			case "list":
				if _, err := e.session(); err != nil {
					return err
				}
				w := newTable(e.out)
				fmt.Fprintln(w, "LOGIN\tNAME\tROLE\tCONTACT\tSTATUS")
				for _, s := range e.dir.Staff() {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.LoginID, s.Name, s.Position, s.Contact, s.Status)
				}
				return w.Flush()

			case "add":
				if _, err := e.require("register staff"); err != nil {
					return err
				}
				s, err := e.dir.Add(auth.SeedEntry{
					Name:      *name,
					Contact:   *contact,
					Position:  strings.ToUpper(*role),
					LoginID:   *login,
					PIN:       *pin,
					ImportKey: *importKey,
				})
				if err != nil {
					return err
				}
				e.printf("✓ Added %s (%s) login %s\n", s.Name, s.Position, s.LoginID)
				return nil
			}
			return fmt.Errorf("unknown staff subcommand %q", sub)
		},
	}
}
