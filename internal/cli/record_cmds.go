package cli

import (
	"github.com/spf13/cobra"

	"github.com/spec-kit/aidtrace/internal/client"
	"github.com/spec-kit/aidtrace/internal/domain"
)

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show your dashboard statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := a.client.DashboardStats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, stats)
		},
	}
}

func (a *app) publicCmd() *cobra.Command {
	parent := &cobra.Command{Use: "public", Short: "Unauthenticated platform views"}
	parent.AddCommand(
		&cobra.Command{
			Use:   "projects",
			Short: "List publicly visible projects",
			RunE: func(cmd *cobra.Command, _ []string) error {
				rows, err := a.client.PublicProjects(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, rows)
			},
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Show platform statistics",
			RunE: func(cmd *cobra.Command, _ []string) error {
				stats, err := a.client.PublicStats(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, stats)
			},
		},
	)
	return parent
}

func (a *app) fundCmd() *cobra.Command {
	var project int64
	var amount float64
	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Fund a project (queued when offline)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := a.client.FundProject(cmd.Context(), domain.Record{"project": project, "amount": amount})
			if err != nil {
				return err
			}
			return printJSON(cmd, rec)
		},
	}
	cmd.Flags().Int64Var(&project, "project", 0, "project id")
	cmd.Flags().Float64Var(&amount, "amount", 0, "amount")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// verifiedFlag returns the --verified value only when the flag was given.
func verifiedFlag(cmd *cobra.Command, v bool) *bool {
	if !cmd.Flags().Changed("verified") {
		return nil
	}
	return client.Bool(v)
}

func (a *app) fundingCmd() *cobra.Command {
	var f client.FundingFilter
	var verified bool
	cmd := &cobra.Command{
		Use:   "funding",
		Short: "List funding transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.IsVerified = verifiedFlag(cmd, verified)
			page, err := a.client.FundingHistory(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printJSON(cmd, page)
		},
	}
	cmd.Flags().Int64Var(&f.Project, "project", 0, "project id")
	cmd.Flags().BoolVar(&verified, "verified", false, "only verified (or --verified=false for unverified)")
	pageFlags(cmd, &f.PageParams)
	return cmd
}

func (a *app) reportsCmd() *cobra.Command {
	parent := &cobra.Command{Use: "reports", Short: "List and submit reports"}

	var f client.ReportFilter
	var verified bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.IsVerified = verifiedFlag(cmd, verified)
			page, err := a.client.Reports(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printJSON(cmd, page)
		},
	}
	list.Flags().Int64Var(&f.Project, "project", 0, "project id")
	list.Flags().StringVar(&f.Type, "type", "", "progress, financial, field or completion")
	list.Flags().BoolVar(&verified, "verified", false, "filter by verification")
	pageFlags(list, &f.PageParams)

	var project int64
	var typ, title, summary string
	submit := &cobra.Command{
		Use:   "submit",
		Short: "Submit a report (queued when offline)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := a.client.SubmitReport(cmd.Context(), domain.Record{
				"project": project, "type": typ, "title": title, "content_summary": summary,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, rec)
		},
	}
	submit.Flags().Int64Var(&project, "project", 0, "project id")
	submit.Flags().StringVar(&typ, "type", "progress", "report type")
	submit.Flags().StringVar(&title, "title", "", "title")
	submit.Flags().StringVar(&summary, "summary", "", "content summary")
	_ = submit.MarkFlagRequired("project")
	_ = submit.MarkFlagRequired("title")

	parent.AddCommand(list, submit)
	return parent
}

func (a *app) distributionsCmd() *cobra.Command {
	parent := &cobra.Command{Use: "distributions", Short: "List and record aid distributions"}

	var f client.DistributionFilter
	var verified bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List distributions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.IsVerified = verifiedFlag(cmd, verified)
			page, err := a.client.Distributions(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printJSON(cmd, page)
		},
	}
	list.Flags().Int64Var(&f.Project, "project", 0, "project id")
	list.Flags().StringVar(&f.AidType, "aid-type", "", "aid type")
	list.Flags().BoolVar(&verified, "verified", false, "filter by verification")
	pageFlags(list, &f.PageParams)

	var project int64
	var beneficiaries int
	var quantity float64
	var aidType, location, notes string
	record := &cobra.Command{
		Use:   "record",
		Short: "Record a distribution (queued when offline)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data := domain.Record{
				"project":             project,
				"beneficiaries_count": beneficiaries,
				"aid_type":            aidType,
				"quantity":            quantity,
				"location":            location,
			}
			if notes != "" {
				data["notes"] = notes
			}
			rec, err := a.client.RecordDistribution(cmd.Context(), data)
			if err != nil {
				return err
			}
			return printJSON(cmd, rec)
		},
	}
	rf := record.Flags()
	rf.Int64Var(&project, "project", 0, "project id")
	rf.IntVar(&beneficiaries, "beneficiaries", 0, "people reached")
	rf.StringVar(&aidType, "aid-type", "", "aid type")
	rf.Float64Var(&quantity, "quantity", 0, "quantity")
	rf.StringVar(&location, "location", "", "location")
	rf.StringVar(&notes, "notes", "", "notes")
	for _, name := range []string{"project", "aid-type", "quantity", "location"} {
		_ = record.MarkFlagRequired(name)
	}

	parent.AddCommand(list, record)
	return parent
}

func (a *app) organisationsCmd() *cobra.Command {
	var f client.OrganisationFilter
	cmd := &cobra.Command{
		Use:   "organisations",
		Short: "List organisations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := a.client.Organisations(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printJSON(cmd, page)
		},
	}
	cmd.Flags().StringVar(&f.Type, "type", "", "organisation type")
	cmd.Flags().StringVar(&f.RegistrationStatus, "status", "", "registration status")
	pageFlags(cmd, &f.PageParams)
	return cmd
}

func (a *app) usersCmd() *cobra.Command {
	var f client.UserFilter
	parent := &cobra.Command{
		Use:   "users",
		Short: "List accounts visible to you",
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := a.client.Users(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printJSON(cmd, page)
		},
	}
	parent.Flags().StringVar(&f.Role, "role", "", "role")
	parent.Flags().Int64Var(&f.Organisation, "organisation", 0, "organisation id")
	pageFlags(parent, &f.PageParams)

	parent.AddCommand(&cobra.Command{
		Use:   "approve ID",
		Short: "Approve a pending account (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.client.ApproveUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, rec)
		},
	})
	return parent
}

func (a *app) verificationsCmd() *cobra.Command {
	var f client.VerificationFilter
	var verified bool
	cmd := &cobra.Command{
		Use:   "verifications",
		Short: "List ledger verifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.IsVerified = verifiedFlag(cmd, verified)
			page, err := a.client.Verifications(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printJSON(cmd, page)
		},
	}
	cmd.Flags().StringVar(&f.EntityType, "entity-type", "", "transaction, report or distribution")
	cmd.Flags().BoolVar(&verified, "verified", false, "filter by verification")
	pageFlags(cmd, &f.PageParams)
	return cmd
}

func (a *app) auditCmd() *cobra.Command {
	var f client.AuditFilter
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List audit entries (admin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := a.client.AuditLogs(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printJSON(cmd, page)
		},
	}
	cmd.Flags().Int64Var(&f.User, "user", 0, "user id")
	cmd.Flags().StringVar(&f.Action, "action", "", "action")
	pageFlags(cmd, &f.PageParams)
	return cmd
}

func (a *app) verifyHashCmd() *cobra.Command {
	var txID string
	cmd := &cobra.Command{
		Use:   "verify-hash HASH",
		Short: "Check whether a record hash is anchored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.client.VerifyHash(cmd.Context(), args[0], txID)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&txID, "tx-id", "", "expected transaction id")
	return cmd
}

func (a *app) chainStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chain-stats",
		Short: "Show verification ledger statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := a.client.BlockchainStats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, stats)
		},
	}
}
