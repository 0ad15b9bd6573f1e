// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"consultation-booking/internal/consultation/scheduling"
	"consultation-booking/pkg/registry"

	"github.com/spf13/cobra"
)

var registryPath string

func main() {
	root := &cobra.Command{
		Use:   "registry-updater",
		Short: "Maintain the sample schedule used when live availability cannot be loaded",
		Example: `  registry-updater add-time --time "10:45 AM"
  registry-updater exclude --date 2025-12-16
  registry-updater set --field lengthMinutes --value 45
  registry-updater validate --path configs/samples.json`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&registryPath, "path", "pkg/registry/samples.json", "path to sample schedule file")

	root.AddCommand(addTimeCmd(), excludeCmd(), setCmd(), validateCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addTimeCmd() *cobra.Command {
	var clock string
	cmd := &cobra.Command{
		Use:   "add-time",
		Short: "Add a start time to every sample day",
		RunE: func(cmd *cobra.Command, args []string) error {
			time24, err := scheduling.To24Hour(clock)
			if err != nil {
				return err
			}
			return update(func(reg *registry.SampleSchedule) error {
				for _, existing := range reg.Times {
					if t, _ := scheduling.To24Hour(existing); t == time24 {
						return fmt.Errorf("time %s already exists", time24)
					}
				}
				reg.Times = append(reg.Times, time24)
				fmt.Printf("Added time: %s\n", time24)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&clock, "time", "", `start time, "HH:MM" or "H:MM AM"`)
	_ = cmd.MarkFlagRequired("time")
	return cmd
}

func excludeCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "exclude",
		Short: "Exclude a date (holiday) from the sample schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := time.Parse("2006-01-02", date); err != nil {
				return fmt.Errorf("invalid date %q, want YYYY-MM-DD", date)
			}
			return update(func(reg *registry.SampleSchedule) error {
				for _, d := range reg.Exclude {
					if d == date {
						return fmt.Errorf("date %s already excluded", date)
					}
				}
				reg.Exclude = append(reg.Exclude, date)
				fmt.Printf("Excluded date: %s\n", date)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date to exclude, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func setCmd() *cobra.Command {
	var field, value string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update a field of the sample schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return update(func(reg *registry.SampleSchedule) error {
				switch field {
				case "version":
					reg.Version = value
				case "lengthMinutes":
					n, err := strconv.Atoi(value)
					if err != nil {
						return fmt.Errorf("invalid lengthMinutes value: %w", err)
					}
					reg.LengthMinutes = n
				case "weekdays":
					reg.Weekdays = splitList(value)
				case "times":
					reg.Times = splitList(value)
				default:
					return fmt.Errorf("unknown field: %s", field)
				}
				fmt.Printf("Updated %s to %s\n", field, value)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&field, "field", "", "field to update (version, lengthMinutes, weekdays, times)")
	cmd.Flags().StringVar(&value, "value", "", "new value; lists are comma-separated")
	_ = cmd.MarkFlagRequired("field")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the sample schedule file",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(registryPath)
			if err != nil {
				return fmt.Errorf("registry validation failed: %w", err)
			}
			fmt.Printf("Registry validation passed. %d weekdays, %d times, %d excluded dates.\n",
				len(reg.Weekdays), len(reg.Times), len(reg.Exclude))
			return nil
		},
	}
}

// update loads the schedule, applies fn, validates the result and saves it.
func update(fn func(reg *registry.SampleSchedule) error) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := fn(reg); err != nil {
		return err
	}
	reg.LastUpdated = time.Now().Format(time.RFC3339)
	return saveRegistry(reg, registryPath)
}

// saveRegistry validates by round-tripping through LoadRegistry before replacing path.
func saveRegistry(reg *registry.SampleSchedule, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	if _, err := registry.LoadRegistry(tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("refusing to save invalid registry: %w", err)
	}
	return os.Rename(tmp, path)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
