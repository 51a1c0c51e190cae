package main

import (
	"context"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hackgods/consultation-scheduling/internal/api"
	"github.com/hackgods/consultation-scheduling/internal/client"
)

func patientCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "patient", Short: "Manage patients"}

	var req api.CreatePatientRequest
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				p, err := c.CreatePatient(ctx, req)
				if err != nil {
					return err
				}
				return printPatients(os.Stdout, []api.PatientResponse{p})
			})
		},
	}
	add.Flags().StringVar(&req.Name, "name", "", "full name")
	add.Flags().StringVar(&req.Email, "email", "", "email address")
	add.Flags().StringVar(&req.Phone, "phone", "", "phone number")
	_ = add.MarkFlagRequired("name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				items, err := c.ListPatients(ctx)
				if err != nil {
					return err
				}
				return printPatients(os.Stdout, items)
			})
		},
	}

	show := &cobra.Command{
		Use:   "show <patient-id>",
		Short: "Show a patient and their history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				p, err := c.GetPatient(ctx, args[0])
				if err != nil {
					return err
				}
				history, err := c.ListAppointments(ctx, client.ListFilter{PatientID: p.ID})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"patient": p, "appointments": history.Items})
				}
				if err := printPatients(os.Stdout, []api.PatientResponse{p}); err != nil {
					return err
				}
				return printAppointments(os.Stdout, history)
			})
		},
	}

	cmd.AddCommand(add, list, show,
		activationCmd("activate", true, (*client.Client).SetPatientActive, printPatient),
		activationCmd("deactivate", false, (*client.Client).SetPatientActive, printPatient),
	)
	return cmd
}

func providerCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "provider", Short: "Manage providers"}

	var req api.CreateProviderRequest
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				p, err := c.CreateProvider(ctx, req)
				if err != nil {
					return err
				}
				return printProviders(os.Stdout, []api.ProviderResponse{p})
			})
		},
	}
	add.Flags().StringVar(&req.Name, "name", "", "full name")
	add.Flags().StringVar(&req.License, "license", "", "professional license number")
	add.Flags().StringVar(&req.Specialty, "specialty", "", "general_practice, cardiology, pediatrics, orthopedics, dermatology or gynecology")
	add.Flags().StringVar(&req.Phone, "phone", "", "phone number")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("license")

	var activeOnly bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				items, err := c.ListProviders(ctx, activeOnly)
				if err != nil {
					return err
				}
				return printProviders(os.Stdout, items)
			})
		},
	}
	list.Flags().BoolVar(&activeOnly, "active", false, "only active providers")

	var date string
	agenda := &cobra.Command{
		Use:   "agenda <provider-id>",
		Short: "Show a provider's appointments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDateFlag("date", date)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				items, err := c.ListAppointments(ctx, client.ListFilter{ProviderID: args[0], Date: day})
				if err != nil {
					return err
				}
				return printAppointments(os.Stdout, items)
			})
		},
	}
	agenda.Flags().StringVar(&date, "date", "", "limit to one day, 2006-01-02")

	cmd.AddCommand(add, list, agenda,
		activationCmd("activate", true, (*client.Client).SetProviderActive, printProvider),
		activationCmd("deactivate", false, (*client.Client).SetProviderActive, printProvider),
	)
	return cmd
}

func activationCmd[T any](use string, active bool, set func(*client.Client, context.Context, string, bool) (T, error), show func(T) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: use + " a participant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				v, err := set(c, ctx, args[0], active)
				if err != nil {
					return err
				}
				return show(v)
			})
		},
	}
}

func printPatient(p api.PatientResponse) error {
	return printPatients(os.Stdout, []api.PatientResponse{p})
}

func printProvider(p api.ProviderResponse) error {
	return printProviders(os.Stdout, []api.ProviderResponse{p})
}

func printPatients(w io.Writer, items []api.PatientResponse) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"ID", "Name", "Email", "Phone", "Active"})
	for _, p := range items {
		tw.AppendRow(table.Row{p.ID, p.Name, p.Email, p.Phone, p.Active})
	}
	tw.Render()
	return nil
}

func printProviders(w io.Writer, items []api.ProviderResponse) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"ID", "Name", "License", "Specialty", "Active"})
	for _, p := range items {
		tw.AppendRow(table.Row{p.ID, p.Name, p.License, p.SpecialtyLabel, p.Active})
	}
	tw.Render()
	return nil
}
