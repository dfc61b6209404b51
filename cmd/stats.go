package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show enrollment and recognition counters",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().Int("recent", 0, "Also list this many recent recognition log entries")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.svc.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Enrollments:        %d\n", st.TotalEnrollments)
	fmt.Printf("Recognition logs:   %d\n", st.TotalLogs)
	fmt.Printf("  last 24 hours:    %d\n", st.RecentLogs24h)

	limit := mustGetInt(cmd, "recent")
	if limit <= 0 {
		return nil
	}
	entries, err := a.audit.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("reading recognition logs: %w", err)
	}
	fmt.Println()
	for _, e := range entries {
		key := e.IdentityKey
		if key == "" {
			key = "-"
		}
		fmt.Printf("%s  %-14s %-15s %.3f %s\n", e.CreatedAt.Local().Format(time.DateTime), e.Status, key, e.Confidence, e.SessionID)
	}
	return nil
}
