package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hackgods/consultation-scheduling/internal/api"
	"github.com/hackgods/consultation-scheduling/internal/client"
	"github.com/hackgods/consultation-scheduling/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "schedctl",
	Short: "Consultation scheduling CLI",
	Long: `schedctl talks to the scheduling API.
- Appointments are booked for a patient (PAC-001) with a provider (MED-001) at a minute.
- A provider cannot have two scheduled appointments at the same minute.
- Appointments end completed or cancelled. Past-dated ones can no longer be cancelled.
- Reports cover one day or a range of cancellation dates.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("SCHEDCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// API_BASE_URL and APP_TIMEZONE from the shared config act as defaults
	if cfg, err := config.Load(); err == nil {
		viper.SetDefault("server", cfg.APIBaseURL)
		viper.SetDefault("timezone", cfg.Location.String())
	}
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "scheduling API base URL")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("timezone", "Local", "zone for times given without an offset")
	rootCmd.PersistentFlags().Duration("timeout", 10*time.Second, "request timeout")
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("timezone", rootCmd.PersistentFlags().Lookup("timezone"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
}

func registerCommands() {
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(completeCmd())
	rootCmd.AddCommand(cancelCmd())
	rootCmd.AddCommand(notesCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(slotCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(patientCmd())
	rootCmd.AddCommand(providerCmd())
	rootCmd.AddCommand(healthCmd())
}

// withClient runs fn with an API client and a context bounded by --timeout.
func withClient(ctx context.Context, fn func(ctx context.Context, c *client.Client) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c := client.New(viper.GetString("server"))
	if t := viper.GetDuration("timeout"); t > 0 {
		c.Timeout = t
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}
	return fn(ctx, c)
}

func location() (*time.Location, error) {
	name := viper.GetString("timezone")
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

func parseTimeFlag(raw string) (time.Time, error) {
	loc, err := location()
	if err != nil {
		return time.Time{}, err
	}
	return api.ParseTime(raw, loc)
}

// parseDateFlag returns nil for an empty value.
func parseDateFlag(name, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	loc, err := location()
	if err != nil {
		return nil, err
	}
	d, err := time.ParseInLocation(api.DateLayout, raw, loc)
	if err != nil {
		return nil, fmt.Errorf("--%s must be %s", name, api.DateLayout)
	}
	return &d, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
