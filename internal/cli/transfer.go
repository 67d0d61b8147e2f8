package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"servicedesk/internal/filter"
	"servicedesk/internal/sheet"

	"github.com/natefinch/atomic"
)

// openInput opens path, or stdin for "-".
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func importCmd() *Command {
	return &Command{
		Flags: newFlags("import"),
		Usage: "import <sheet.csv>",
		Short: "Bulk import complaints from a CSV sheet",
		Long: "Import a CSV export of the complaint spreadsheet. Columns are found\n" +
			"by header name (REG DATE or DATE, TECH NAME or TECH, and so on).\n" +
			"Rows without a customer name are skipped. Imported jobs go on top.",
		Exec: func(_ context.Context, e *env, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("import needs exactly one file")
			}
			if _, err := e.require("import sheets"); err != nil {
				return err
			}

			f, err := openInput(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rows, err := sheet.NewImporter(e.norm, e.dir.MatchTechnician).Read(f)
			if err != nil {
				return err
			}
			book, err := e.openBook()
			if err != nil {
				return err
			}
			n, err := book.Import(rows)
			if err != nil {
				return err
			}
			e.printf("✓ Imported %d complaints (%d total)\n", n, book.Len())
			return nil
		},
	}
}

func exportCSVCmd() *Command {
	flags := newFlags("export-csv")
	ff := addFilterFlags(flags)
	out := flags.StringP("output", "o", "-", "Output file, - for stdout")

	return &Command{
		Flags: flags,
		Usage: "export-csv [-o file] [filter flags]",
		Short: "Write complaints as a CSV sheet",
		Exec: func(_ context.Context, e *env, _ []string) error {
			s, err := e.session()
			if err != nil {
				return err
			}
			records, err := e.visible(s)
			if err != nil {
				return err
			}
			cfg, err := ff.config(e)
			if err != nil {
				return err
			}
			records = filter.Apply(e.norm, records, cfg)

			if *out == "-" {
				return sheet.Write(e.out, records)
			}
			pr, pw := io.Pipe()
			go func() {
				pw.CloseWithError(sheet.Write(pw, records))
			}()
			if err := atomic.WriteFile(*out, pr); err != nil {
				return err
			}
			e.printf("✓ Wrote %d complaints to %s\n", len(records), *out)
			return nil
		},
	}
}

func backupCmd() *Command {
	flags := newFlags("backup")
	out := flags.StringP("output", "o", "-", "Output file, - for stdout")

	return &Command{
		Flags: flags,
		Usage: "backup [-o file]",
		Short: "Export the whole collection as JSON",
		Exec: func(_ context.Context, e *env, _ []string) error {
			if _, err := e.require("export backups"); err != nil {
				return err
			}
			book, err := e.openBook()
			if err != nil {
				return err
			}
			data, err := book.Export()
			if err != nil {
				return err
			}

			if *out == "-" {
				_, err := e.out.Write(append(data, '\n'))
				return err
			}
			if err := atomic.WriteFile(*out, bytes.NewReader(data)); err != nil {
				return err
			}
			e.printf("✓ Backed up %d complaints to %s\n", book.Len(), *out)
			return nil
		},
	}
}

func restoreCmd() *Command {
	return &Command{
		Flags: newFlags("restore"),
		Usage: "restore <backup.json>",
		Short: "Replace the whole collection with a backup",
		Exec: func(_ context.Context, e *env, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("restore needs exactly one file")
			}
			if _, err := e.require("restore backups"); err != nil {
				return err
			}

			f, err := openInput(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			data, err := io.ReadAll(f)
			if err != nil {
				return err
			}

			book, err := e.openBook()
			if err != nil {
				return err
			}
			n, err := book.Restore(data)
			if err != nil {
				return err
			}
			e.printf("✓ Restored %d complaints\n", n)
			return nil
		},
	}
}
