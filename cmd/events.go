package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/config"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List recently admitted events",
	RunE:  runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().String("since", "24h", "How far back to list events (Go duration)")
}

func runEvents(cmd *cobra.Command, args []string) error {
	window, err := time.ParseDuration(mustGetString(cmd, "since"))
	if err != nil {
		return fmt.Errorf("invalid --since duration: %w", err)
	}

	ctx := context.Background()
	svc, cleanup, err := buildService(ctx, config.Load())
	if err != nil {
		return err
	}
	defer cleanup()

	events, err := svc.RecentEvents(ctx, time.Now().Add(-window))
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No events in the window")
		return nil
	}

	for i := range events {
		name := events[i].IdentityName
		if events[i].IdentityID == nil {
			name = "(unknown person)"
		}
		fmt.Printf("%s  %-25s  score %.4f  %s\n",
			events[i].Timestamp.Format(time.RFC3339), name, events[i].Score, events[i].ImageRef)
	}
	return nil
}
