package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe the workspace API and show fetch-layer status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, tok, _, err := newClient(cmd)
	if err != nil {
		return err
	}
	workspaceID := tok.Claims.WorkspaceID

	users, err := client.Users(cmd.Context(), workspaceID)
	if err != nil {
		fmt.Printf("Workspace %s: user list unavailable (%v)\n", workspaceID, err)
	} else {
		fmt.Printf("Workspace %s: %d users\n", workspaceID, len(users))
		profiles := client.AllProfiles(cmd.Context(), workspaceID, users)
		fmt.Printf("Profiles: %d fetched\n", len(profiles))
	}

	st, kv, err := openStore(workspaceID)
	if err != nil {
		return err
	}
	defer kv.Close()
	fmt.Printf("Overrides: %d users\n", st.OverrideCount())

	snapshot := client.Status()
	fmt.Printf("Profile fetches: %d attempted, %d failed\n", snapshot.ProfilesAttempted, snapshot.ProfilesFailed)
	if snapshot.LastError != "" {
		fmt.Printf("Last error: %s (%s)\n", snapshot.LastError, snapshot.LastErrorAt.Format("15:04:05"))
	}
	return nil
}
