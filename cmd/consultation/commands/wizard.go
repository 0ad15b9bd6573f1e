package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	apperrors "consultation-booking/internal/common/errors"
	"consultation-booking/internal/consultation/form"
	"consultation-booking/internal/consultation/message"
	"consultation-booking/internal/consultation/phone"
	"consultation-booking/internal/consultation/scheduling"
	"consultation-booking/internal/consultation/session"

	"github.com/spf13/cobra"
)

func wizardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wizard",
		Short: "Fill in the consultation form and book a meeting",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s := appCtx.newSession()
			defer s.Close()
			w := &wizard{
				s:      s,
				p:      newPrompter(ctx, cmd.InOrStdin(), cmd.OutOrStdout()),
				normal: session.LoadConfig(appCtx.cfg).Phone,
			}
			err := w.run(ctx)

			if errors.Is(err, errInterrupted) || errors.Is(err, io.EOF) {
				reason := "closed"
				if errors.Is(err, errInterrupted) {
					reason = "interrupted"
				}
				if s.Abandon(reason) {
					drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = s.Drain(drainCtx)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "\nSee you next time.")
				return nil
			}
			return err
		},
	}
}

// maxScheduleAttempts bounds how many times the schedule questions are asked
// in one pass before control returns to the step loop.
const maxScheduleAttempts = 5

var errNoSchedule = errors.New("no meeting time chosen")

type wizard struct {
	s      *session.Session
	p      *prompter
	normal phone.Normalizer
}

func (w *wizard) run(ctx context.Context) error {
	w.p.printf("Book your free SEO consultation. Type < to go back.\n")

	for w.s.Status() != session.StatusConfirmed {
		step := w.s.CurrentStep()
		w.p.printf("\nStep %d of %d: %s\n", int(step), form.StepCount, step)

		err := w.fill(ctx, step)
		if errors.Is(err, errNoSchedule) {
			w.p.printf("  ! %s\n", err)
			continue
		}
		if errors.Is(err, errBack) {
			if err := w.s.Back(); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		if step == form.StepSchedule {
			w.p.printf("\n%s\n\n", message.ToMessage(w.s.FormData()))
			answer, err := w.p.ask("Book this meeting? (y/n)", "y")
			if err != nil {
				if errors.Is(err, errBack) {
					continue
				}
				return err
			}
			if answer != "y" && answer != "Y" {
				continue
			}
		}

		if err := w.s.Next(ctx); err != nil {
			w.report(err)
		}
	}

	w.p.printf("\nThank you! Your consultation is booked. Check your email for details.\n")
	return nil
}

func (w *wizard) report(err error) {
	var invalid *apperrors.ValidationError
	switch {
	case errors.As(err, &invalid):
		keys := make([]string, 0, len(invalid.Fields))
		for k := range invalid.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			w.p.printf("  ! %s\n", invalid.Fields[k])
		}
	case errors.Is(err, session.ErrFallbackSlot):
		w.p.printf("  ! %s\n", err)
		_ = w.s.ClearSchedule()
	default:
		if sub := w.s.Submission(); sub.State == session.SubmissionFailed {
			w.p.printf("  ! %s\n", sub.Reason)
			if sub.Booked {
				w.p.printf("    Your meeting is booked; retrying will only resend the confirmation.\n")
			}
			return
		}
		w.p.printf("  ! %s\n", apperrors.UserMessage(err))
	}
}

func (w *wizard) fill(ctx context.Context, step form.Step) error {
	data := w.s.FormData()

	switch step {
	case form.StepPersonalInfo:
		name, err := w.p.ask("Full name", data.FullName)
		if err != nil {
			return err
		}
		email, err := w.p.ask("Email address", data.Email)
		if err != nil {
			return err
		}
		mobile, err := w.p.ask("Mobile/WhatsApp", data.Phone)
		if err != nil {
			return err
		}
		referral, err := w.p.choose("Where did you hear about us?", message.ReferralSources, data.ReferralSource)
		if err != nil {
			return err
		}
		if err := w.s.Update(func(f *form.FormData) {
			f.FullName, f.Email, f.ReferralSource = name, email, referral
		}); err != nil {
			return err
		}
		warning, err := w.s.SetPhone(w.normal.Qualify(mobile))
		if err != nil {
			return err
		}
		if warning != "" {
			w.p.printf("  ! %s\n", warning)
		}

	case form.StepBusinessInfo:
		company, err := w.p.ask("Company name", data.CompanyName)
		if err != nil {
			return err
		}
		businessType, err := w.p.choose("Business type/industry", message.BusinessTypes, data.BusinessType)
		if err != nil {
			return err
		}
		website, err := w.p.ask("Website (optional)", data.Website)
		if err != nil {
			return err
		}
		seo, err := w.p.choose("Have you done SEO before?", message.SEOExperience, data.HasDoneSEO)
		if err != nil {
			return err
		}
		if err := w.s.Update(func(f *form.FormData) {
			f.CompanyName, f.BusinessType, f.Website, f.HasDoneSEO = company, businessType, website, seo
		}); err != nil {
			return err
		}
		if warning := w.s.FieldWarnings()["website"]; warning != "" {
			w.p.printf("  ! %s\n", warning)
		}

	case form.StepServiceNeeds:
		goals, err := w.p.chooseMany("What's your primary goal?", message.Goals, data.Goals)
		if err != nil {
			return err
		}
		team, err := w.p.choose("Choose the service you're looking for", message.ServiceTeams, data.ServiceTeam)
		if err != nil {
			return err
		}
		return w.s.Update(func(f *form.FormData) {
			f.Goals, f.ServiceTeam = goals, team
		})

	case form.StepSchedule:
		return w.schedule(ctx)
	}
	return nil
}

func (w *wizard) schedule(ctx context.Context) error {
	data := w.s.FormData()
	if data.Scheduled() {
		answer, err := w.p.ask(fmt.Sprintf("Keep %s at %s? (y/n)", data.SelectedDate.Format("Mon, Jan 2"), data.SelectedTime), "y")
		if err != nil {
			return err
		}
		if answer == "y" || answer == "Y" {
			return nil
		}
	}

	for attempt := 0; attempt < maxScheduleAttempts; attempt++ {
		picked, err := w.pickSlot(ctx)
		if err != nil || picked {
			return err
		}
	}
	return errNoSchedule
}

// pickSlot asks for zone, month, date and time once. It reports false when
// the answers led nowhere and the questions should be asked again.
func (w *wizard) pickSlot(ctx context.Context) (bool, error) {
	tz, err := w.p.ask("Time zone (see `consultation zones`)", w.s.FormData().TimeZone)
	if err != nil {
		return false, err
	}
	if err := w.s.SetTimeZone(tz); err != nil {
		w.p.printf("  ! %s\n", err)
		return false, nil
	}
	loc := scheduling.Location(tz)

	month := time.Now().In(loc)
	answer, err := w.p.ask("Month (YYYY-MM)", month.Format("2006-01"))
	if err != nil {
		return false, err
	}
	if month, err = scheduling.ParseMonth(answer, loc); err != nil {
		w.p.printf("  ! %s\n", err)
		return false, nil
	}

	w.p.printf("Loading available times...\n")
	for err := w.s.LoadSlots(ctx, month); err != nil; err = w.s.LoadSlots(ctx, month) {
		w.p.printf("  ! %s\n", apperrors.UserMessage(err))
		choice, err := w.p.ask("[r]etry or [s]ample times", "r")
		if err != nil {
			return false, err
		}
		if choice == "s" {
			if err := w.s.UseSampleSlots(); err != nil {
				return false, err
			}
			w.p.printf("Showing sample times. They cannot be booked.\n")
			break
		}
	}

	avail := w.s.Slots().Data
	dates := avail.SortedDates()
	if len(dates) == 0 {
		w.p.printf("No available times in %s.\n", month.Format("January 2006"))
		return false, nil
	}

	for i, d := range dates {
		day, _ := time.ParseInLocation("2006-01-02", d, loc)
		w.p.printf("  %d) %s\n", i+1, day.Format("Mon, Jan 2"))
	}
	date, err := w.pickIndex("Date", len(dates))
	if err != nil {
		return false, err
	}

	slots := avail.SlotsOn(dates[date])
	for i, slot := range slots {
		w.p.printf("  %d) %s\n", i+1, slot.Label(loc))
	}
	idx, err := w.pickIndex("Time", len(slots))
	if err != nil {
		return false, err
	}
	return true, w.s.SelectSlot(slots[idx])
}

func (w *wizard) pickIndex(label string, n int) (int, error) {
	for {
		answer, err := w.p.ask(label, "")
		if err != nil {
			return 0, err
		}
		if i, err := strconv.Atoi(answer); err == nil && i >= 1 && i <= n {
			return i - 1, nil
		}
		w.p.printf("Please enter a number between 1 and %d.\n", n)
	}
}
