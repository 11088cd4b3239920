package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/apet97/worklens/internal/store"
)

var overrideWorkspace string

var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Manage per-user capacity overrides",
}

var overrideModeCmd = &cobra.Command{
	Use:   "mode <user-id> <none|global|perDay>",
	Short: "Switch a user's override mode",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := store.ParseOverrideMode(args[1])
		if err != nil {
			return err
		}
		return withStore(cmd, func(st *store.Store) error {
			if err := st.SetOverrideMode(args[0], mode); err != nil {
				return err
			}
			fmt.Printf("Override mode for %s set to %s.\n", args[0], mode)
			return nil
		})
	},
}

var overrideCapacityCmd = &cobra.Command{
	Use:   "capacity <user-id> <hours>",
	Short: "Set a user's global daily capacity in hours",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hours, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid hours %q: %w", args[1], err)
		}
		return withStore(cmd, func(st *store.Store) error {
			if err := st.UpdateCapacity(args[0], hours); err != nil {
				return err
			}
			fmt.Printf("Capacity for %s set to %sh per day.\n", args[0], args[1])
			return nil
		})
	},
}

var overrideWorkdaysCmd = &cobra.Command{
	Use:   "workdays <user-id> <mon,tue,...>",
	Short: "Set a user's global working weekdays",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		days, err := parseWeekdays(args[1])
		if err != nil {
			return err
		}
		return withStore(cmd, func(st *store.Store) error {
			if err := st.UpdateWorkingDays(args[0], days); err != nil {
				return err
			}
			fmt.Printf("Working days for %s set to %s.\n", args[0], args[1])
			return nil
		})
	},
}

var (
	dayCapacity float64
	dayWorking  string
)

var overrideDayCmd = &cobra.Command{
	Use:   "day <user-id> <date>",
	Short: "Set a per-day capacity or working-flag override",
	Long: `Sets an override for one calendar date. Creates the user's record in
perDay mode when it does not exist yet.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("capacity") && dayWorking == "" {
			return fmt.Errorf("nothing to set: pass --capacity and/or --working")
		}
		return withStore(cmd, func(st *store.Store) error {
			if cmd.Flags().Changed("capacity") {
				if err := st.UpdateDayCapacity(args[0], args[1], dayCapacity); err != nil {
					return err
				}
			}
			if dayWorking != "" {
				working, err := strconv.ParseBool(dayWorking)
				if err != nil {
					return fmt.Errorf("invalid --working %q: %w", dayWorking, err)
				}
				if err := st.UpdateDayWorking(args[0], args[1], working); err != nil {
					return err
				}
			}
			fmt.Printf("Override for %s on %s updated.\n", args[0], args[1])
			return nil
		})
	},
}

func init() {
	overrideCmd.PersistentFlags().StringVar(&overrideWorkspace, "workspace", "", "Workspace id (default: from token)")
	overrideDayCmd.Flags().Float64Var(&dayCapacity, "capacity", 0, "Capacity in hours for the date")
	overrideDayCmd.Flags().StringVar(&dayWorking, "working", "", "Working flag for the date (true/false)")
	overrideCmd.AddCommand(overrideModeCmd)
	overrideCmd.AddCommand(overrideCapacityCmd)
	overrideCmd.AddCommand(overrideWorkdaysCmd)
	overrideCmd.AddCommand(overrideDayCmd)
}

// withStore resolves the workspace id, opens the store and runs fn.
func withStore(cmd *cobra.Command, fn func(*store.Store) error) error {
	workspaceID := overrideWorkspace
	if workspaceID == "" {
		_, tok, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		workspaceID = tok.Claims.WorkspaceID
	}
	st, kv, err := openStore(workspaceID)
	if err != nil {
		return err
	}
	defer kv.Close()
	return fn(st)
}

func parseWeekdays(s string) ([]time.Weekday, error) {
	names := map[string]time.Weekday{
		"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
		"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
	}
	var days []time.Weekday
	for _, part := range strings.Split(s, ",") {
		d, ok := names[strings.ToLower(strings.TrimSpace(part))]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		days = append(days, d)
	}
	return days, nil
}
