// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"resource-scheduling/internal/common/validation"
	"resource-scheduling/pkg/registry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var registryPath string

	root := &cobra.Command{
		Use:           "registry-updater",
		Short:         "Inspect and maintain the activity registry",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&registryPath, "path", "configs/activities.json", "path to the registry file")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check task types are unique and every schema compiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(registryPath)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := validateRegistry(reg); err != nil {
				return fmt.Errorf("registry validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed (%d activities).\n", len(reg.Activities))
			return nil
		},
	}

	var inputFile string
	checkCmd := &cobra.Command{
		Use:   "check [taskType]",
		Short: "Validate a job variables document against a task's input schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(registryPath)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if _, ok := reg.Find(args[0]); !ok {
				return fmt.Errorf("unknown task type %q", args[0])
			}
			doc, err := os.ReadFile(inputFile)
			if err != nil {
				return err
			}
			v, err := validation.NewValidator(reg.InputSchema(args[0]))
			if err != nil {
				return err
			}
			result, err := v.Validate(doc)
			if err != nil {
				return err
			}
			if !result.Valid {
				return fmt.Errorf("input invalid: %s", strings.Join(result.GetErrorMessages(), "; "))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Input is valid.")
			return nil
		},
	}
	checkCmd.Flags().StringVar(&inputFile, "input", "", "JSON file with job variables")
	_ = checkCmd.MarkFlagRequired("input")

	var id, field, value string
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Set one field of an activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(registryPath)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := updateActivity(reg, id, field, value); err != nil {
				return err
			}
			reg.LastUpdated = time.Now().Format("2006-01-02")
			if err := saveRegistry(reg, registryPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s, field %s to %s\n", id, field, value)
			return nil
		},
	}
	updateCmd.Flags().StringVar(&id, "id", "", "activity ID")
	updateCmd.Flags().StringVar(&field, "field", "", "field to update (version, displayName, description, category, timeout, retries)")
	updateCmd.Flags().StringVar(&value, "value", "", "new value")
	_ = updateCmd.MarkFlagRequired("id")
	_ = updateCmd.MarkFlagRequired("field")

	root.AddCommand(validateCmd, checkCmd, updateCmd)
	return root
}

func validateRegistry(reg *registry.ActivityRegistry) error {
	if len(reg.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	ids := make(map[string]bool)
	for _, activity := range reg.Activities {
		if activity.ID == "" {
			return fmt.Errorf("activity missing required field: ID")
		}
		if ids[activity.ID] {
			return fmt.Errorf("duplicate activity ID: %s", activity.ID)
		}
		ids[activity.ID] = true

		if activity.Timeout != "" {
			if _, err := time.ParseDuration(activity.Timeout); err != nil {
				return fmt.Errorf("activity %s: invalid timeout %q", activity.ID, activity.Timeout)
			}
		}
		if _, err := validation.NewValidator(activity.InputSchema); err != nil {
			return fmt.Errorf("activity %s: input schema: %w", activity.ID, err)
		}
		if _, err := validation.NewValidator(activity.OutputSchema); err != nil {
			return fmt.Errorf("activity %s: output schema: %w", activity.ID, err)
		}
	}
	return nil
}

func updateActivity(reg *registry.ActivityRegistry, id, field, value string) error {
	for i := range reg.Activities {
		if reg.Activities[i].ID != id {
			continue
		}
		a := &reg.Activities[i]
		switch field {
		case "version":
			a.Version = value
		case "displayName":
			a.DisplayName = value
		case "description":
			a.Description = value
		case "category":
			a.Category = value
		case "timeout":
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("invalid timeout value: %w", err)
			}
			a.Timeout = value
		case "retries":
			retries, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid retries value: %w", err)
			}
			a.Retries = retries
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		return nil
	}
	return fmt.Errorf("activity with ID %s not found", id)
}

func saveRegistry(reg *registry.ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
