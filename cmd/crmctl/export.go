package main

import (
	"fmt"
	"strings"

	"bookingcrm/internal/client"
	"bookingcrm/internal/domain"
	"bookingcrm/internal/export"
	"bookingcrm/internal/notice"

	"github.com/spf13/cobra"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		crit     client.Criteria
		dateType string
		page     int
		all      bool
		fields   string
		exclude  []string
		outDir   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write bookings to a CSV file",
		Long: "Exports the current filtered page, or with --all the complete dataset " +
			"fetched fresh from the server. Only the srdev role may export.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := selectionFromFlags(fields, exclude)
			if err != nil {
				return err
			}

			c, err := opts.client()
			if err != nil {
				return err
			}
			s, err := opts.session()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			exp := export.NewExporter(c, export.DirSink{Dir: outDir}, notice.LogNotifier{})
			if !s.CanExport() {
				_, err := exp.Export(ctx, s, nil, sel, all)
				return err
			}

			var records []domain.Booking
			if !all {
				crit.DateType = client.DateType(dateType)
				st, err := loadView(cmd, opts, crit, page)
				if err != nil {
					return err
				}
				records = st.Records
			}

			res, err := exp.Export(ctx, s, records, sel, all)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bookings to %s\n", res.Rows, res.Location)
			return nil
		},
	}
	addCriteriaFlags(cmd, &crit, &dateType)
	cmd.Flags().IntVar(&page, "page", 1, "page to export when not using --all")
	cmd.Flags().BoolVar(&all, "all", false, "export every booking instead of the current page")
	cmd.Flags().StringVar(&fields, "fields", "", "comma separated columns (default all): "+strings.Join(export.Keys(), ","))
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "columns to leave out")
	cmd.Flags().StringVar(&outDir, "out", ".", "directory to write the CSV into")
	return cmd
}

func selectionFromFlags(fields string, exclude []string) (export.Selection, error) {
	sel := export.AllFields()
	if strings.TrimSpace(fields) != "" {
		sel = export.SelectionOf(strings.Split(fields, ",")...)
	}
	for _, k := range exclude {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if len(export.SelectionOf(k).Unknown()) > 0 {
			return nil, fmt.Errorf("unknown field %s in --exclude", k)
		}
		if sel[k] {
			sel.Toggle(k)
		}
	}
	if unknown := sel.Unknown(); len(unknown) > 0 {
		return nil, fmt.Errorf("unknown fields %s (known: %s)", strings.Join(unknown, ","), strings.Join(export.Keys(), ","))
	}
	return sel, nil
}
