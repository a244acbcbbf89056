// cmd/lumi-notes/main.go
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ViniZap4/lumi-estimates/domain"
	"github.com/ViniZap4/lumi-estimates/filesystem"
	"github.com/ViniZap4/lumi-estimates/notes"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lumi-notes",
		Short: "Parse contact notes into grouped estimate fields",
		Long: `lumi-notes reads the free-text notes kept on a contact, usually an
OCR'd estimate form, and prints the fields it recognizes grouped into
estimate, customer, location, vendor, totals and other.

Example:
  lumi-notes parse notes.txt
  pbpaste | lumi-notes summary -
  lumi-notes export ./contacts --name "Jane Roe" --notes-file notes.txt`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(parseCmd())
	root.AddCommand(summaryCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(scanCmd())
	return root
}

func parseCmd() *cobra.Command {
	var clean, compact bool

	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Print the parsed notes as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			if clean {
				text = notes.Clean(text)
			}
			return writeJSON(cmd.OutOrStdout(), notes.Parse(text), compact)
		},
	}

	cmd.Flags().BoolVar(&clean, "clean", false, "Normalize unicode before parsing")
	cmd.Flags().BoolVar(&compact, "compact", false, "Print JSON on a single line")
	return cmd
}

func summaryCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "summary [file|-]",
		Short: "Check subtotal + tax against the stated total",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			s := notes.Summarize(notes.Parse(notes.Clean(text)))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Subtotal: %s\n", amountString(s.Subtotal))
			fmt.Fprintf(out, "Tax:      %s\n", amountString(s.Tax))
			fmt.Fprintf(out, "Total:    %s\n", amountString(s.Total))
			fmt.Fprintf(out, "Computed: %s\n", s.Computed.StringFixed(2))

			if s.Balanced {
				fmt.Fprintln(out, "Balanced: yes")
				return nil
			}
			fmt.Fprintln(out, "Balanced: no")
			if strict {
				return errors.New("total does not match subtotal + tax")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when the totals do not balance")
	return cmd
}

func exportCmd() *cobra.Command {
	var contact domain.Contact
	var notesFile string

	cmd := &cobra.Command{
		Use:   "export <dir>",
		Short: "Write a contact file with frontmatter and notes",
		Long: `Write a contact as <id>.md into dir. The file can later be loaded by
the server through LUMI_IMPORT_DIR.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(contact.Name) == "" {
				return errors.New("--name is required")
			}
			if notesFile != "" {
				text, err := readInput(cmd, []string{notesFile})
				if err != nil {
					return err
				}
				contact.Notes = strings.TrimSpace(text)
			}

			if err := filesystem.CreateContactFile(args[0], &contact); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), contact.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&contact.Name, "name", "", "Contact name")
	cmd.Flags().StringVar(&contact.Email, "email", "", "Contact email")
	cmd.Flags().StringVar(&contact.Phone, "phone", "", "Contact phone")
	cmd.Flags().StringVar(&notesFile, "notes-file", "", "File holding the notes (- for stdin)")
	return cmd
}

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <dir>",
		Short: "Parse every contact file in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contacts, skipped, err := filesystem.ListContacts(args[0])
			if err != nil {
				return err
			}
			for path, err := range skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %v\n", path, err)
			}

			out := cmd.OutOrStdout()
			for _, c := range contacts {
				parsed := notes.Parse(c.Notes)
				if parsed.IsEmpty() {
					fmt.Fprintf(out, "%s\t%s\tno notes\n", c.ID, c.Name)
					continue
				}
				s := notes.Summarize(parsed)
				total := "-"
				if s.Total.Valid {
					total = s.Total.Value.StringFixed(2)
				}
				fmt.Fprintf(out, "%s\t%s\tfields=%d\titems=%d\ttotal=%s\n",
					c.ID, c.Name, countEntries(parsed), len(parsed.LineItems), total)
			}
			return nil
		},
	}
}

// readInput reads the named file, or stdin when the argument is "-" or absent.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}

func writeJSON(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func amountString(a notes.Amount) string {
	if !a.Valid {
		return "-"
	}
	return a.Value.StringFixed(2)
}

func countEntries(p domain.ParsedNote) int {
	n := 0
	for _, g := range domain.Groups {
		n += len(p.Entries(g))
	}
	return n
}
