package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command defines a CLI command with unified help generation.
type Command struct {
	// Flags defines command-specific flags.
	Flags *flag.FlagSet

	// Usage is the usage string shown after "servicedesk" in help.
	// The first word is the command name.
	Usage string

	// Short is a one-line description for the global help listing.
	Short string

	// Long is the full description shown in command help.
	// If empty, Short is used instead.
	Long string

	// Exec runs the command after flags are parsed.
	Exec func(ctx context.Context, e *env, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine returns the short help line for the main usage display.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-34s %s", c.Usage, c.Short)
}

// PrintHelp prints the full help output for "servicedesk <cmd> --help".
func (c *Command) PrintHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: servicedesk", c.Usage)
	fmt.Fprintln(w)

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}
	fmt.Fprintln(w, desc)

	if c.Flags != nil && c.Flags.HasFlags() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Flags:")

		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		fmt.Fprint(w, buf.String())
	}
}

// parse parses args into the command's flags.
//
// Returns:
//   - []string: Positional arguments
//   - bool: true when --help was requested and printed
//   - error: Flag parse error
func (c *Command) parse(args []string, out io.Writer) ([]string, bool, error) {
	if c.Flags == nil {
		c.Flags = flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	}
	c.Flags.SetOutput(io.Discard)

	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(out)
			return nil, true, nil
		}
		return nil, false, err
	}
	return c.Flags.Args(), false, nil
}

// newFlags returns an empty flag set for a command.
func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}
