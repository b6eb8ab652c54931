package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spec-kit/aidtrace/internal/client"
	"github.com/spec-kit/aidtrace/internal/domain"
)

func (a *app) projectsCmd() *cobra.Command {
	parent := &cobra.Command{Use: "projects", Short: "List and manage projects"}
	parent.AddCommand(a.projectsListCmd(), a.projectShowCmd(), a.projectCreateCmd(), a.projectUpdateCmd(),
		a.projectStatusCmd("approve", (*client.Client).ApproveProject),
		a.projectStatusCmd("reject", (*client.Client).RejectProject))
	return parent
}

func (a *app) projectsListCmd() *cobra.Command {
	var f client.ProjectFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects visible to you",
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := a.client.Projects(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printJSON(cmd, page)
		},
	}
	cmd.Flags().StringSliceVar(&f.Status, "status", nil, "statuses, comma separated")
	cmd.Flags().Int64Var(&f.Organisation, "organisation", 0, "organisation id")
	cmd.Flags().StringVar(&f.Location, "location", "", "location")
	pageFlags(cmd, &f.PageParams)
	return cmd
}

func (a *app) projectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.client.Project(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, rec)
		},
	}
}

func (a *app) projectCreateCmd() *cobra.Command {
	var title, description, location, sector, start, end string
	var budget float64
	var beneficiaries int
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project (queued when offline)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data := domain.Record{
				"title":         title,
				"description":   description,
				"budget":        budget,
				"location":      location,
				"beneficiaries": beneficiaries,
				"start_date":    start,
				"end_date":      end,
			}
			if sector != "" {
				data["sector"] = sector
			}
			rec, err := a.client.CreateProject(cmd.Context(), data)
			if err != nil {
				return err
			}
			return printJSON(cmd, rec)
		},
	}
	f := cmd.Flags()
	f.StringVar(&title, "title", "", "title")
	f.StringVar(&description, "description", "", "description")
	f.Float64Var(&budget, "budget", 0, "budget")
	f.StringVar(&location, "location", "", "location")
	f.StringVar(&sector, "sector", "", "sector")
	f.IntVar(&beneficiaries, "beneficiaries", 0, "expected beneficiaries")
	f.StringVar(&start, "start-date", "", "start date (YYYY-MM-DD)")
	f.StringVar(&end, "end-date", "", "end date (YYYY-MM-DD)")
	for _, name := range []string{"title", "description", "budget", "location", "start-date", "end-date"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (a *app) projectUpdateCmd() *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "update ID --set field=value...",
		Short: "Replace project fields (queued when offline)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseAssignments(sets)
			if err != nil {
				return err
			}
			rec, err := a.client.UpdateProject(cmd.Context(), args[0], data)
			if err != nil {
				return err
			}
			return printJSON(cmd, rec)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field=value, repeatable")
	return cmd
}

type statusChange func(c *client.Client, ctx context.Context, id string) (domain.Record, error)

func (a *app) projectStatusCmd(verb string, fn statusChange) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " ID",
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " a pending project (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := fn(a.client, cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "project %s is now %s\n", args[0], domain.StringField(rec, "status"))
			return nil
		},
	}
}

// parseAssignments turns field=value pairs into a record. Values that parse
// as numbers or booleans keep that type.
func parseAssignments(pairs []string) (domain.Record, error) {
	out := domain.Record{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid assignment %q, want field=value", p)
		}
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			out[k] = n
		} else if f, err := strconv.ParseFloat(v, 64); err == nil {
			out[k] = f
		} else if b, err := strconv.ParseBool(v); err == nil {
			out[k] = b
		} else {
			out[k] = v
		}
	}
	return out, nil
}

func pageFlags(cmd *cobra.Command, p *client.PageParams) {
	cmd.Flags().IntVar(&p.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&p.PageSize, "page-size", 0, "page size")
}
