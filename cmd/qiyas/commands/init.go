package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// initCmd creates a new identity, overwriting any stored one: a single
// Ed25519 seed whose X25519 image is derived via the birational curve
// conversion, stored encrypted on disk. No rotation proof is produced.
func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create your local identity (replaces any existing one)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, fingerprint, err := appCtx.IdentityService.GenerateIdentity(passphrase)
			if err != nil {
				return fmt.Errorf("generating identity: %w", err)
			}

			fmt.Println("Identity created.")
			fmt.Printf("Fingerprint: %s\n", fingerprint)
			return nil
		},
	}
}
