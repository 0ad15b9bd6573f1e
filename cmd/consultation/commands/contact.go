package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	apperrors "consultation-booking/internal/common/errors"
	"consultation-booking/internal/consultation/contact"
	"consultation-booking/internal/consultation/form"
	"consultation-booking/internal/consultation/message"
	"consultation-booking/internal/consultation/phone"
	"consultation-booking/internal/consultation/session"

	"github.com/spf13/cobra"
)

func contactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contact",
		Short: "Send a message to the consultant without booking a meeting",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			normal := session.LoadConfig(appCtx.cfg).Phone
			c := &contactPrompt{
				svc:    contact.NewService(appCtx.gateway, normal, appCtx.obs, appCtx.log),
				p:      newPrompter(ctx, cmd.InOrStdin(), cmd.OutOrStdout()),
				normal: normal,
			}
			err := c.run(ctx)
			if errors.Is(err, errInterrupted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(cmd.OutOrStdout(), "\nSee you next time.")
				return nil
			}
			return err
		},
	}
}

type contactPrompt struct {
	svc    *contact.Service
	p      *prompter
	normal phone.Normalizer
	form   form.ContactForm
}

// run asks every question, then sends. Answers are kept across attempts so
// a failed send or a validation error only needs the wrong fields retyped.
func (c *contactPrompt) run(ctx context.Context) error {
	c.p.printf("Contact us. Type < to start over.\n")

	for {
		err := c.fill()
		if errors.Is(err, errBack) {
			continue
		}
		if err != nil {
			return err
		}

		err = c.svc.Submit(ctx, c.form)
		if err == nil {
			c.p.printf("\nThank you! We'll get back to you soon.\n")
			return nil
		}

		var invalid *apperrors.ValidationError
		if errors.As(err, &invalid) {
			keys := make([]string, 0, len(invalid.Fields))
			for k := range invalid.Fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				c.p.printf("  ! %s\n", invalid.Fields[k])
			}
			continue
		}

		c.p.printf("  ! %s\n", apperrors.UserMessage(err))
		answer, askErr := c.p.ask("Try again? (y/n)", "y")
		if askErr != nil {
			return askErr
		}
		if answer != "y" && answer != "Y" {
			return err
		}
	}
}

func (c *contactPrompt) fill() error {
	f := c.form
	var err error

	if f.FullName, err = c.p.ask("Full name", f.FullName); err != nil {
		return err
	}
	if f.Email, err = c.p.ask("Email address", f.Email); err != nil {
		return err
	}
	mobile, err := c.p.ask("Mobile/WhatsApp", f.Phone)
	if err != nil {
		return err
	}
	var warning string
	f.Phone, warning = c.svc.NormalizePhone(c.normal.Qualify(mobile))
	if warning != "" {
		c.p.printf("  ! %s\n", warning)
	}
	if f.Services, err = c.p.chooseMany("Services you're interested in", message.ContactServices, f.Services); err != nil {
		return err
	}
	if f.PrimaryGoal, err = c.p.choose("Primary goal", message.ContactGoals, f.PrimaryGoal); err != nil {
		return err
	}
	if f.PrimaryGoal == form.GoalOther {
		if f.OtherGoal, err = c.p.ask("Please specify your goal", f.OtherGoal); err != nil {
			return err
		}
	}
	if f.WebsiteURL, err = c.p.ask("Website (optional)", f.WebsiteURL); err != nil {
		return err
	}
	if f.BudgetRange, err = c.p.choose("Monthly budget range", message.BudgetRanges, f.BudgetRange); err != nil {
		return err
	}
	if f.HowHeard, err = c.p.choose("Where did you hear about us?", message.HowHeard, f.HowHeard); err != nil {
		return err
	}

	agreed := ""
	if f.PrivacyAgreement {
		agreed = "y"
	}
	answer, err := c.p.ask("Do you agree to the Privacy Policy? (y/n)", agreed)
	if err != nil {
		return err
	}
	f.PrivacyAgreement = answer == "y" || answer == "Y"

	c.form = f
	return nil
}
