package cmd

import (
	"context"
	"fmt"

	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/config"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var identitiesCmd = &cobra.Command{
	Use:   "identities",
	Short: "List enrolled identities",
	RunE:  runIdentitiesList,
}

var identitiesRemoveCmd = &cobra.Command{
	Use:   "remove <identity-id>",
	Short: "Remove an identity and all its reference embeddings",
	Args:  cobra.ExactArgs(1),
	RunE:  runIdentitiesRemove,
}

func init() {
	rootCmd.AddCommand(identitiesCmd)
	identitiesCmd.AddCommand(identitiesRemoveCmd)
}

func runIdentitiesList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	svc, cleanup, err := buildService(ctx, config.Load())
	if err != nil {
		return err
	}
	defer cleanup()

	identities := svc.Identities()
	if len(identities) == 0 {
		fmt.Println("No identities enrolled")
		return nil
	}

	fmt.Printf("%-36s  %-25s  %s\n", "ID", "NAME", "REFERENCES")
	for i := range identities {
		fmt.Printf("%-36s  %-25s  %d\n", identities[i].ID, identities[i].Name, len(identities[i].Embeddings))
	}
	return nil
}

func runIdentitiesRemove(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid identity id %q: %w", args[0], err)
	}

	ctx := context.Background()
	svc, cleanup, err := buildService(ctx, config.Load())
	if err != nil {
		return err
	}
	defer cleanup()

	if err := svc.RemoveIdentity(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Removed identity %s\n", id)
	return nil
}
