package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SeveN7Igor7/studioivosantos/config"
	"github.com/SeveN7Igor7/studioivosantos/internal/bootstrap"
	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
	"github.com/SeveN7Igor7/studioivosantos/internal/logging"
)

// opener builds the wired services for the config file at path.
type opener func(ctx context.Context, path string) (*bootstrap.App, error)

func openApp(ctx context.Context, path string) (*bootstrap.App, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return bootstrap.Build(ctx, cfg, logging.NewWithOptions(cfg.LoggerOptions("shopctl")))
}

type cli struct {
	open    opener
	cfgFile string
}

func newRootCommand(open opener) *cobra.Command {
	c := &cli{open: open}
	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "Administer the barbershop calendar",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", config.Path(), "config file path")

	root.AddCommand(c.slotsCommand())
	root.AddCommand(c.daysCommand())
	root.AddCommand(c.servicesCommand())
	root.AddCommand(c.appointmentsCommand())
	return root
}

// run opens the app for one command and closes it afterwards.
func (c *cli) run(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App, out io.Writer) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := c.open(ctx, c.cfgFile)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app, cmd.OutOrStdout())
}

func (c *cli) slotsCommand() *cobra.Command {
	var services []string
	cmd := &cobra.Command{
		Use:   "slots <date>",
		Short: "Print the bookable start times of a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App, out io.Writer) error {
				date, err := domain.ParseDate(args[0], app.Location)
				if err != nil {
					return err
				}
				av, err := app.Bookings.Availability(ctx, date, services)
				if err != nil {
					return err
				}
				if av.Reason != "" {
					fmt.Fprintf(out, "%s: unavailable (%s)\n", date.Format(domain.ISODateLayout), av.Reason)
					return nil
				}
				slots := make([]string, 0, len(av.Slots))
				for _, s := range av.Slots {
					slots = append(slots, s.String())
				}
				fmt.Fprintf(out, "%s (%d min): %s\n", date.Format(domain.ISODateLayout), av.DurationMinutes, strings.Join(slots, " "))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&services, "service", "s", []string{"haircut"}, "service ids to book")
	return cmd
}

func (c *cli) daysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "days",
		Short: "Manage disabled days",
	}
	setter := func(use string, disabled bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <date>",
			Short: use + " a day for bookings",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.run(cmd, func(ctx context.Context, app *bootstrap.App, out io.Writer) error {
					date, err := domain.ParseDate(args[0], app.Location)
					if err != nil {
						return err
					}
					if err := app.Calendar.SetDayDisabled(ctx, date, disabled); err != nil {
						return err
					}
					fmt.Fprintf(out, "%s disabled=%t\n", date.Format(domain.ISODateLayout), disabled)
					return nil
				})
			},
		}
	}
	cmd.AddCommand(setter("disable", true), setter("enable", false))
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List disabled days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App, out io.Writer) error {
				days, err := app.Calendar.DisabledDays(ctx)
				if err != nil {
					return err
				}
				for _, d := range days {
					fmt.Fprintln(out, d.Format(domain.ISODateLayout))
				}
				return nil
			})
		},
	})
	return cmd
}

func (c *cli) servicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "services",
		Short: "Manage the service catalogue",
	}
	var overwrite bool
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Write the default catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App, out io.Writer) error {
				n, err := app.Catalog.SeedDefaults(ctx, overwrite)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "seeded %d services\n", n)
				return nil
			})
		},
	}
	seed.Flags().BoolVar(&overwrite, "overwrite", false, "replace services that already exist")

	list := &cobra.Command{
		Use:   "list",
		Short: "List the catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App, out io.Writer) error {
				services, err := app.Catalog.List(ctx)
				if err != nil {
					return err
				}
				for _, s := range services {
					fmt.Fprintf(out, "%-16s %-20s %3d min  %s\n", s.ID, s.Name, s.DurationMinutes, s.Class())
				}
				return nil
			})
		},
	}
	cmd.AddCommand(seed, list)
	return cmd
}

func (c *cli) appointmentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "appointments",
		Aliases: []string{"appt"},
		Short:   "Complete or cancel appointments",
	}
	transition := func(use string, apply func(*bootstrap.App) func(context.Context, string) (*domain.Appointment, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: use + " an active appointment",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.run(cmd, func(ctx context.Context, app *bootstrap.App, out io.Writer) error {
					a, err := apply(app)(ctx, args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s %s %s %s\n", a.ID, a.Date.Format(domain.ISODateLayout), a.Start, a.Status)
					return nil
				})
			},
		}
	}
	cmd.AddCommand(
		transition("complete", func(app *bootstrap.App) func(context.Context, string) (*domain.Appointment, error) {
			return app.Bookings.Complete
		}),
		transition("cancel", func(app *bootstrap.App) func(context.Context, string) (*domain.Appointment, error) {
			return app.Bookings.Cancel
		}),
	)
	cmd.AddCommand(&cobra.Command{
		Use:   "day <date>",
		Short: "List a day's appointments in every status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App, out io.Writer) error {
				date, err := domain.ParseDate(args[0], app.Location)
				if err != nil {
					return err
				}
				list, err := app.Calendar.Day(ctx, date, "")
				if err != nil {
					return err
				}
				for _, a := range list {
					fmt.Fprintf(out, "%s-%s %-9s %-20s %s\n", a.Start, a.End(), a.Status, a.Customer.Name, a.ID)
				}
				return nil
			})
		},
	})
	return cmd
}
