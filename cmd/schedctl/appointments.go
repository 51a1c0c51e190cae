package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hackgods/consultation-scheduling/internal/api"
	"github.com/hackgods/consultation-scheduling/internal/client"
)

const displayLayout = "02/01/2006 15:04"

func scheduleCmd() *cobra.Command {
	var patient, provider, at, notes string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Book an appointment",
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseTimeFlag(at)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				appt, err := c.Schedule(ctx, patient, provider, when, notes)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(appt)
				}
				fmt.Printf("scheduled %s for %s\n", appt.ID, appt.ScheduledAt.Format(displayLayout))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&patient, "patient", "", "patient id (PAC-...)")
	cmd.Flags().StringVar(&provider, "provider", "", "provider id (MED-...)")
	cmd.Flags().StringVar(&at, "at", "", "date and time, 2006-01-02T15:04 or RFC 3339")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("patient")
	_ = cmd.MarkFlagRequired("provider")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func completeCmd() *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "complete <appointment-id>",
		Short: "Mark an appointment as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				appt, err := c.Complete(ctx, args[0], notes)
				if err != nil {
					return err
				}
				return printAppointment(appt, "completed")
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "visit notes")
	return cmd
}

func cancelCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "cancel <appointment-id>",
		Short: "Cancel an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				appt, err := c.Cancel(ctx, args[0], reason)
				if err != nil {
					return err
				}
				return printAppointment(appt, "cancelled")
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "cancellation reason")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func notesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notes <appointment-id> <text>",
		Short: "Replace the notes of an appointment",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				appt, err := c.UpdateNotes(ctx, args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				return printAppointment(appt, "updated")
			})
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <appointment-id>",
		Short: "Show one appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				if viper.GetBool("json") {
					appt, err := c.GetAppointment(ctx, args[0])
					if err != nil {
						return err
					}
					return printJSON(appt)
				}
				text, err := c.AppointmentSummary(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Print(text)
				return nil
			})
		},
	}
}

func listCmd() *cobra.Command {
	var f struct {
		date, patient, provider, status string
	}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List appointments",
		Long:  "List appointments. The first filter given wins: --patient, --provider (with optional --date), --status, --date.",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateFlag("date", f.date)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				list, err := c.ListAppointments(ctx, client.ListFilter{
					PatientID:  f.patient,
					ProviderID: f.provider,
					Status:     f.status,
					Date:       date,
				})
				if err != nil {
					return err
				}
				return printAppointments(os.Stdout, list)
			})
		},
	}
	cmd.Flags().StringVar(&f.date, "date", "", "day, 2006-01-02")
	cmd.Flags().StringVar(&f.patient, "patient", "", "patient id")
	cmd.Flags().StringVar(&f.provider, "provider", "", "provider id")
	cmd.Flags().StringVar(&f.status, "status", "", "scheduled, completed or cancelled")

	cmd.AddCommand(listShortcut("upcoming", "Scheduled appointments due soon", (*client.Client).Upcoming))
	cmd.AddCommand(listShortcut("overdue", "Scheduled appointments whose time has passed", (*client.Client).Overdue))
	cmd.AddCommand(listShortcut("pending", "Today's appointments still scheduled", (*client.Client).PendingToday))
	return cmd
}

func listShortcut(use, short string, fetch func(*client.Client, context.Context) (api.AppointmentListResponse, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				list, err := fetch(c, ctx)
				if err != nil {
					return err
				}
				return printAppointments(os.Stdout, list)
			})
		},
	}
}

func slotCmd() *cobra.Command {
	slot := &cobra.Command{Use: "slot", Short: "Check provider availability"}

	var provider, at string
	free := &cobra.Command{
		Use:   "free",
		Short: "Check whether a provider is free at a time",
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseTimeFlag(at)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				ok, err := c.SlotFree(ctx, provider, when)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(api.SlotResponse{ProviderID: strings.ToUpper(provider), At: when, Free: ok})
				}
				if ok {
					fmt.Printf("%s is free at %s\n", strings.ToUpper(provider), when.Format(displayLayout))
				} else {
					fmt.Printf("%s is booked at %s\n", strings.ToUpper(provider), when.Format(displayLayout))
				}
				return nil
			})
		},
	}
	free.Flags().StringVar(&provider, "provider", "", "provider id")
	free.Flags().StringVar(&at, "at", "", "date and time")
	_ = free.MarkFlagRequired("provider")
	_ = free.MarkFlagRequired("at")

	var availAt string
	providers := &cobra.Command{
		Use:   "providers",
		Short: "List active providers free at a time",
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseTimeFlag(availAt)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				resp, err := c.AvailableProviders(ctx, when)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(resp)
				}
				return printProviders(os.Stdout, resp.Providers)
			})
		},
	}
	providers.Flags().StringVar(&availAt, "at", "", "date and time")
	_ = providers.MarkFlagRequired("at")

	slot.AddCommand(free, providers)
	return slot
}

func printAppointment(appt api.AppointmentResponse, verb string) error {
	if viper.GetBool("json") {
		return printJSON(appt)
	}
	fmt.Printf("%s %s (%s)\n", verb, appt.ID, appt.Status)
	return nil
}

func printAppointments(w io.Writer, list api.AppointmentListResponse) error {
	if viper.GetBool("json") {
		return printJSON(list)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"ID", "When", "Patient", "Provider", "Status", "Flag", "Notes"})
	for _, a := range list.Items {
		flag := ""
		switch {
		case a.Upcoming:
			flag = "upcoming"
		case a.Overdue:
			flag = "overdue"
		}
		tw.AppendRow(table.Row{a.ID, a.ScheduledAt.Format(displayLayout), a.PatientID, a.ProviderID, a.Status, flag, a.Notes})
	}
	tw.AppendFooter(table.Row{"", "", "", "", "", "total", list.Count})
	tw.Render()
	return nil
}
