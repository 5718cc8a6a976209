// cmd/tools/prismctl/registry.go
package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"prism-workers/pkg/registry"

	"github.com/spf13/cobra"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Maintain the activity registry",
}

var registryValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check required fields, duplicates, timeouts and schemas",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := reg.Validate(); err != nil {
			return fmt.Errorf("registry validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(reg.Activities))
		return nil
	},
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered activities",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TASK TYPE\tCATEGORY\tSTATUS\tTIMEOUT\tRETRIES")
		for _, a := range reg.Activities {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", a.TaskType, a.Category, a.ImplementationStatus, a.Timeout, a.Retries)
		}
		return w.Flush()
	},
}

var registryUpdateCmd = &cobra.Command{
	Use:   "update <id> <field> <value>",
	Short: "Update one field of an activity",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := updateActivity(reg, args[0], args[1], args[2]); err != nil {
			return err
		}
		if err := reg.Validate(); err != nil {
			return fmt.Errorf("update leaves registry invalid: %w", err)
		}
		if err := registry.Save(reg, registryPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s, field %s to %s\n", args[0], args[1], args[2])
		return nil
	},
}

func updateActivity(reg *registry.ActivityRegistry, id, field, value string) error {
	for i := range reg.Activities {
		a := &reg.Activities[i]
		if a.ID != id {
			continue
		}
		switch field {
		case "status":
			a.ImplementationStatus = value
		case "version":
			a.Version = value
		case "displayName":
			a.DisplayName = value
		case "description":
			a.Description = value
		case "timeout":
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
