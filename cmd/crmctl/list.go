package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"bookingcrm/internal/client"
	"bookingcrm/internal/notice"

	"github.com/spf13/cobra"
)

func addCriteriaFlags(cmd *cobra.Command, c *client.Criteria, dateType *string) {
	f := cmd.Flags()
	f.StringVar(&c.Search, "search", "", "booking id or company name; overrides every other filter")
	f.StringVar(&c.BDMName, "bdm", "", "BDM name (partial, case-insensitive)")
	f.StringVar(&c.Status, "status", "", "Pending, In Progress or Completed")
	f.StringVar(&c.Service, "service", "", "service name")
	f.StringVar(&c.PaymentMode, "payment-mode", "", "bank or payment mode")
	f.StringVar(&c.StartDate, "start", "", "range start, YYYY-MM-DD")
	f.StringVar(&c.EndDate, "end", "", "range end, YYYY-MM-DD")
	f.StringVar(dateType, "date-type", string(client.DateTypeBooking), "which date the range applies to: booking or payment")
}

// loadView runs the criteria through a controller and returns the page the
// user asked for.
func loadView(cmd *cobra.Command, opts *rootOptions, crit client.Criteria, page int) (client.State, error) {
	c, err := opts.client()
	if err != nil {
		return client.State{}, err
	}
	s, err := opts.session()
	if err != nil {
		return client.State{}, err
	}

	ctx, cancel := signalContext()
	defer cancel()

	ctrl := client.NewController(c, s, c.PageSize(), client.WithNotifier(notice.LogNotifier{}))
	defer ctrl.Close()

	if err := ctrl.Apply(ctx, crit); err != nil {
		return client.State{}, err
	}
	if page > 1 {
		if err := ctrl.GoToPage(ctx, page); err != nil {
			return client.State{}, err
		}
	}
	return ctrl.State(), nil
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		crit     client.Criteria
		dateType string
		page     int
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bookings matching the filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			crit.DateType = client.DateType(dateType)
			st, err := loadView(cmd, opts, crit, page)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st.Records)
			}
			return printBookings(cmd.OutOrStdout(), st)
		},
	}
	addCriteriaFlags(cmd, &crit, &dateType)
	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	return cmd
}

func printBookings(w io.Writer, st client.State) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOMPANY\tBDM\tSTATUS\tSERVICES\tTOTAL\tRECEIVED\tDATE")
	for i := range st.Records {
		b := &st.Records[i]
		date := ""
		if b.Date != nil {
			date = b.Date.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\t%s\t%s\n",
			b.ID, b.CompanyName, b.BDM, b.Status, strings.Join(b.Services, ", "),
			b.TotalAmount, b.Received().StringFixed(2), date)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nPage %d of %d (%d bookings, mode %s)\n", st.Page, st.TotalPages, st.Total, st.Query.Mode())
	return err
}
