package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rsclarke/goepp/internal/db"
	"github.com/rsclarke/goepp/internal/models"
)

var errNoJournal = errors.New("no journal configured (set --journal or journal in the config file)")

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the command journal",
}

var journalListFlags struct {
	command string
	since   time.Duration
	limit   int
	attr    string
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journaled commands, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := models.JournalFilter{
			Command: journalListFlags.command,
			Limit:   journalListFlags.limit,
		}
		if journalListFlags.since > 0 {
			f.Since = time.Now().Add(-journalListFlags.since).UnixMilli()
		}
		return withJournal(func(d *sql.DB) error {
			var (
				entries []models.JournalEntry
				err     error
			)
			if journalListFlags.attr != "" {
				entries, err = entriesByAttribute(d, journalListFlags.attr, f.Limit)
			} else {
				entries, err = db.ListJournalEntries(d, f)
			}
			if err != nil {
				return err
			}
			return printEntries(cmd.OutOrStdout(), entries)
		})
	},
}

var journalShowCmd = &cobra.Command{
	Use:   "show <id|clTRID>",
	Short: "Show one journaled command with its request and response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJournal(func(d *sql.DB) error {
			var (
				e   *models.JournalEntry
				err error
			)
			if id, perr := strconv.ParseInt(args[0], 10, 64); perr == nil {
				e, err = db.GetJournalEntry(d, id)
			} else {
				e, err = db.GetJournalEntryByClTRID(d, args[0])
			}
			if err != nil {
				return err
			}
			if e == nil {
				return fmt.Errorf("journal entry %s not found", args[0])
			}
			attrs, err := db.GetAttributes(d, e.ID)
			if err != nil {
				return err
			}
			return printEntry(cmd.OutOrStdout(), e, attrs)
		})
	},
}

var journalPruneFlags struct {
	olderThan time.Duration
}

var journalPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete journaled commands older than --older-than",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if journalPruneFlags.olderThan <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}
		before := time.Now().Add(-journalPruneFlags.olderThan).UnixMilli()
		return withJournal(func(d *sql.DB) error {
			n, err := db.PruneJournal(d, before)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d entries\n", n)
			return nil
		})
	},
}

// entriesByAttribute lists entries whose attribute matches a key=value
// pair. value is read as JSON when it parses, so redacted=1 matches the
// number and status="ok" the string.
func entriesByAttribute(d *sql.DB, pair string, limit int) ([]models.JournalEntry, error) {
	key, raw, ok := strings.Cut(pair, "=")
	if !ok || key == "" {
		return nil, fmt.Errorf("invalid --attr %q (want key=value)", pair)
	}
	var value any = raw
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
		value = decoded
	}
	ids, err := db.FindByAttribute(d, key, value)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	entries := make([]models.JournalEntry, 0, len(ids))
	for _, id := range ids {
		e, err := db.GetJournalEntry(d, id)
		if err != nil {
			return nil, err
		}
		if e != nil {
			entries = append(entries, *e)
		}
	}
	return entries, nil
}

func withJournal(fn func(d *sql.DB) error) error {
	if cfg.JournalPath == "" {
		return errNoJournal
	}
	d, err := db.Open(cfg.JournalPath)
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(d)
}

func printEntries(w io.Writer, entries []models.JournalEntry) error {
	if rootFlags.output == outputJSON {
		return printJSON(w, entries)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tCOMMAND\tCODE\tDURATION\tCLTRID")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%dms\t%s\n",
			e.ID, formatMillis(e.OccurredAt), e.Command, e.Code, e.DurationMS, e.ClTRID)
	}
	return tw.Flush()
}

func printEntry(w io.Writer, e *models.JournalEntry, attrs map[string]any) error {
	switch rootFlags.output {
	case outputJSON:
		return printJSON(w, struct {
			*models.JournalEntry
			Attributes map[string]any `json:"attributes,omitempty"`
		}{e, attrs})
	case outputXML:
		return printXML(w, e.Response)
	}
	fmt.Fprintf(w, "id:        %d\n", e.ID)
	fmt.Fprintf(w, "time:      %s\n", formatMillis(e.OccurredAt))
	fmt.Fprintf(w, "command:   %s\n", e.Command)
	fmt.Fprintf(w, "user:      %s\n", e.User)
	fmt.Fprintf(w, "clTRID:    %s\n", e.ClTRID)
	fmt.Fprintf(w, "svTRID:    %s\n", e.SvTRID)
	fmt.Fprintf(w, "result:    %d %s\n", e.Code, e.Message)
	if e.Reason != "" {
		fmt.Fprintf(w, "reason:    %s\n", e.Reason)
	}
	if e.Error != "" {
		fmt.Fprintf(w, "error:     %s\n", e.Error)
	}
	fmt.Fprintf(w, "duration:  %dms\n", e.DurationMS)
	for k, v := range attrs {
		fmt.Fprintf(w, "attr:      %s=%v\n", k, v)
	}
	if e.Request != "" {
		fmt.Fprintln(w, "\nrequest:")
		if err := printXML(w, e.Request); err != nil {
			return err
		}
	}
	if e.Response != "" {
		fmt.Fprintln(w, "\nresponse:")
		if err := printXML(w, e.Response); err != nil {
			return err
		}
	}
	return nil
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd, journalShowCmd, journalPruneCmd)

	journalListCmd.Flags().StringVar(&journalListFlags.command, "command", "", "only this command, e.g. domain:create")
	journalListCmd.Flags().DurationVar(&journalListFlags.since, "since", 0, "only entries newer than this, e.g. 24h")
	journalListCmd.Flags().IntVar(&journalListFlags.limit, "limit", db.DefaultListLimit, "maximum entries")
	journalListCmd.Flags().StringVar(&journalListFlags.attr, "attr", "", "only entries with this plugin attribute, e.g. redacted=1")

	journalPruneCmd.Flags().DurationVar(&journalPruneFlags.olderThan, "older-than", 0, "age of the entries to delete, e.g. 720h")
}
