package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"qiyas/internal/domain"
)

// rotateSPKCmd generates a fresh signed pre-key and republishes the bundle.
// The previous signed pre-key is never deleted from the store, only
// superseded as "current": the pre-key store indexes signed pre-keys by id
// rather than overwriting a single slot, so old SPKs stay usable to decrypt
// late messages. They have no expiry; nothing removes them after any grace
// period.
func rotateSPKCmd() *cobra.Command {
	var oneTimeKeyCount int

	cmd := &cobra.Command{
		Use:   "rotate-spk <username>",
		Short: "Rotate your signed pre-key and republish the bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			usernameValue := domain.Username(args[0])

			_, _, err := appCtx.PreKeyService.GenerateAndStorePreKeys(passphrase, oneTimeKeyCount)
			if err != nil {
				return fmt.Errorf("rotating signed pre-key: %w", err)
			}

			bundle, err := appCtx.PreKeyService.LoadPreKeyBundle(passphrase, usernameValue, relayURL)
			if err != nil {
				return fmt.Errorf("loading bundle for %q: %w", usernameValue, err)
			}
			if err := appCtx.RelayClient.RegisterPreKeyBundle(cmd.Context(), bundle); err != nil {
				return fmt.Errorf("registering bundle: %w", err)
			}

			fmt.Printf("Rotated signed pre-key (id %d)\n", bundle.SignedPreKeyID)
			return nil
		},
	}

	cmd.Flags().IntVar(&oneTimeKeyCount, "one-time-keys", 10, "number of fresh one-time pre-keys to generate alongside the rotation")
	return cmd
}
