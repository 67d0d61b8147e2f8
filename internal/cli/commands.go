package cli

// commands returns a fresh set of commands, in help order. Each run gets
// new flag sets.
func commands() []*Command {
	return []*Command{
		loginCmd(),
		logoutCmd(),
		whoamiCmd(),
		listCmd(),
		showCmd(),
		addCmd(),
		updateCmd(),
		stampCmd(),
		todayCmd(),
		statsCmd(),
		importCmd(),
		exportCSVCmd(),
		backupCmd(),
		restoreCmd(),
		manifestCmd(),
		reportCmd(),
		daemonCmd(),
		staffCmd(),
	}
}

func findCommand(name string) *Command {
	for _, c := range commands() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}
