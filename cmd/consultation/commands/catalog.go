package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	apperrors "consultation-booking/internal/common/errors"
	"consultation-booking/internal/consultation/scheduling"

	"github.com/spf13/cobra"
)

func eventTypesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event-types",
		Short: "List bookable event types",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := appCtx.gateway.GetEventTypes(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s: %w", apperrors.UserMessage(err), err)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSLUG\tLENGTH\tTITLE\tOWNER TZ")
			for _, et := range resp.All() {
				fmt.Fprintf(w, "%d\t%s\t%dm\t%s\t%s\n", et.ID, et.Slug, et.Length, et.Title, et.Owner.TimeZone)
			}
			return w.Flush()
		},
	}
	return cmd
}

func slotsCmd() *cobra.Command {
	var (
		month  string
		tz     string
		sample bool
	)

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Show available meeting times for a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := appCtx.newSession()
			defer s.Close()
			if tz != "" {
				if err := s.SetTimeZone(tz); err != nil {
					return err
				}
			}
			loc := scheduling.Location(s.FormData().TimeZone)

			m := time.Now().In(loc)
			if month != "" {
				var err error
				if m, err = scheduling.ParseMonth(month, loc); err != nil {
					return err
				}
			}

			if sample {
				if err := s.LoadSlots(cmd.Context(), m); err != nil {
					appCtx.log.Debug("Live slots unavailable", map[string]interface{}{"error": err.Error()})
				}
				if err := s.UseSampleSlots(); err != nil {
					return err
				}
			} else if err := s.LoadSlots(cmd.Context(), m); err != nil {
				return fmt.Errorf("%s: %w", apperrors.UserMessage(err), err)
			}

			out := cmd.OutOrStdout()
			state := s.Slots()
			if state.Fallback {
				fmt.Fprintln(out, "Sample times (not bookable):")
			}
			if state.Data.Count() == 0 {
				fmt.Fprintln(out, "No available times this month.")
				return nil
			}
			for _, date := range state.Data.SortedDates() {
				day, _ := time.ParseInLocation("2006-01-02", date, loc)
				fmt.Fprintln(out, day.Format("Mon, Jan 2"))
				for _, slot := range state.Data.SlotsOn(date) {
					fmt.Fprintf(out, "  %s\n", slot.Label(loc))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month to show, YYYY-MM (default current)")
	cmd.Flags().StringVar(&tz, "tz", "", "time zone (see `consultation zones`)")
	cmd.Flags().BoolVar(&sample, "sample", false, "show locally stored sample times")
	return cmd
}

func zonesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "zones",
		Short: "List supported time zones",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, z := range scheduling.Zones() {
				fmt.Fprintln(cmd.OutOrStdout(), z.Label())
			}
			return nil
		},
	}
}
