package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/graft/internal/ir"
	"github.com/roach88/graft/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB   string // journal path; defaults to the configured journal
	Path string // only records for this resolved path
}

// HistoryResult is the JSON payload of the history command.
type HistoryResult struct {
	Count     int                 `json:"count"`
	Overrides []ir.OverrideRecord `json:"overrides"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "history",
		Short:         "List journaled module overrides",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "override journal database (default: config journal)")
	cmd.Flags().StringVar(&opts.Path, "path", "", "only list overrides of this resolved path")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	dbPath := opts.DB
	if dbPath == "" {
		cfg, err := opts.Config()
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "load config", err)
		}
		dbPath = cfg.Journal
	}
	if dbPath == "" {
		msg := "no journal configured: pass --db or set journal in graft.yaml"
		_ = formatter.Error(ErrCodeJournal, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	if _, err := os.Stat(dbPath); err != nil {
		_ = formatter.Error(ErrCodeJournal, fmt.Sprintf("journal not found: %s", dbPath), nil)
		return WrapExitError(ExitCommandError, "journal not found", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), map[string]string{"db": dbPath})
		return WrapExitError(ExitCommandError, "open journal", err)
	}
	defer st.Close()

	var records []ir.OverrideRecord
	if opts.Path != "" {
		records, err = st.ReadOverridesForPath(cmd.Context(), opts.Path)
	} else {
		records, err = st.ReadOverrides(cmd.Context())
	}
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), map[string]string{"db": dbPath})
		return WrapExitError(ExitCommandError, "read journal", err)
	}

	result := HistoryResult{Count: len(records), Overrides: records}
	return formatter.Render(result, func(w io.Writer) error {
		if len(records) == 0 {
			_, err := fmt.Fprintln(w, "no overrides recorded")
			return err
		}
		for _, rec := range records {
			fmt.Fprintf(w, "%4d %-10s %s -> %s  %s..%s\n",
				rec.Seq, rec.Resolution, rec.Identifier, rec.ResolvedPath,
				short(rec.OriginalDigest), short(rec.TransformedDigest))
		}
		return nil
	})
}

func short(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
