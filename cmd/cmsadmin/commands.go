package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/config"
	"github.com/tendant/simple-cms/pkg/simplecms/scheduler"
	"github.com/tendant/simple-cms/pkg/simplecms/seed"
)

const longUsage = `Simple CMS Admin CLI

Inspects content types and entries and promotes scheduled entries.

Configuration comes from the environment (a .env file in the current
directory is loaded first). DATABASE_URL selects the store; with the
default in-memory store, SEED_FILE is applied so there is something to
inspect.`

type app struct {
	svc     simplecms.Service
	cfg     *config.ServerConfig
	out     io.Writer
	now     func() time.Time
	useJSON bool
}

func (a *app) close() {
	if a.cfg != nil {
		a.cfg.Close()
		a.cfg = nil
	}
}

// connect builds the service from the environment unless one is already set.
func (a *app) connect(ctx context.Context) error {
	if a.svc != nil {
		return nil
	}
	cfg, err := config.Load(config.WithEnv(), config.WithEventLogging(false))
	if err != nil {
		return err
	}
	svc, err := cfg.BuildService(ctx)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.svc = svc

	if cfg.SeedFile != "" {
		file, err := seed.Load(cfg.SeedFile)
		if err != nil {
			return err
		}
		if _, err := seed.Apply(ctx, svc, file); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now().UTC()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "cmsadmin",
		Short:         "Administer a simple-cms store",
		Long:          longUsage,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.connect(cmd.Context())
		},
	}
	root.PersistentFlags().BoolVar(&a.useJSON, "json", false, "Output as JSON")

	root.AddCommand(
		newTypesCmd(a),
		newEntriesCmd(a),
		newDueCmd(a),
		newPromoteDueCmd(a),
		newEnvCmd(),
	)
	return root
}

func newTypesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List content types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := a.svc.ListContentTypes(cmd.Context())
			if err != nil {
				return err
			}
			if a.useJSON {
				return a.printJSON(types)
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSLUG\tNAME\tFIELDS\tUPDATED")
			for _, ct := range types {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					ct.ID, ct.Slug, ct.DisplayName, fieldSummary(ct), ct.UpdatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}

func fieldSummary(ct *simplecms.ContentType) string {
	parts := make([]string, len(ct.Fields))
	for i, f := range ct.Fields {
		p := f.Name + ":" + string(f.FieldType)
		if f.Required {
			p += "*"
		}
		parts[i] = p
	}
	return strings.Join(parts, ",")
}

func newEntriesCmd(a *app) *cobra.Command {
	var status, search string
	cmd := &cobra.Command{
		Use:   "entries <typeSlug>",
		Short: "List entries of a content type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ct, err := a.svc.GetContentTypeBySlug(ctx, args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			st := simplecms.EntryStatus(strings.ToUpper(status))
			if st != "" && !st.IsValid() {
				return fmt.Errorf("%w: %q", simplecms.ErrInvalidStatus, status)
			}

			entries, err := a.svc.ListEntries(ctx, simplecms.ListEntriesRequest{
				ContentTypeID: ct.ID,
				Status:        st,
				Search:        search,
			})
			if err != nil {
				return err
			}
			return a.printEntries(ctx, entries)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (DRAFT, PUBLISHED, SCHEDULED, ARCHIVED)")
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive match on slug or any value")
	return cmd
}

func newDueCmd(a *app) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List scheduled entries that are due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := a.parseAt(at)
			if err != nil {
				return err
			}
			entries, err := a.svc.FindDue(cmd.Context(), when)
			if err != nil {
				return err
			}
			return a.printEntries(cmd.Context(), entries)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Reference time in RFC3339 (default: now)")
	return cmd
}

func newPromoteDueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "promote-due",
		Short: "Publish every scheduled entry that is due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := scheduler.NewPromoter(a.svc, 0,
				scheduler.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
				scheduler.WithClock(a.clock))
			result, err := p.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			if a.useJSON {
				return a.printJSON(map[string]any{
					"promoted": result.Promoted,
					"skipped":  result.Skipped,
					"failed":   result.Failed,
				})
			}
			fmt.Fprintf(a.out, "Promoted %d entries (%d skipped, %d failed)\n",
				len(result.Promoted), result.Skipped, result.Failed)
			for _, id := range result.Promoted {
				fmt.Fprintln(a.out, id)
			}
			return nil
		},
	}
}

func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Describe the environment variables",
		Args:  cobra.NoArgs,
		// Needs no store.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			usage, err := config.EnvUsage()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), usage)
			return nil
		},
	}
}

func (a *app) parseAt(at string) (time.Time, error) {
	if at == "" {
		return a.clock(), nil
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return time.Time{}, fmt.Errorf("--at must be RFC3339: %w", err)
	}
	return t, nil
}

type entryView struct {
	*simplecms.ContentEntry
	Fields map[string]string `json:"fields"`
}

func (a *app) printEntries(ctx context.Context, entries []*simplecms.ContentEntry) error {
	if a.useJSON {
		views := make([]entryView, 0, len(entries))
		for _, e := range entries {
			fields, err := a.svc.ResolveFields(ctx, e)
			if err != nil {
				fields = map[string]string{}
			}
			views = append(views, entryView{ContentEntry: e, Fields: fields})
		}
		return a.printJSON(views)
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSLUG\tSTATUS\tPUBLISHED\tSCHEDULED\tUPDATED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Slug, e.Status, formatTime(e.PublishedAt), formatTime(e.ScheduledAt),
			e.UpdatedAt.Format(time.RFC3339))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\nTotal: %d\n", len(entries))
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
