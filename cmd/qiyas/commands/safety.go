package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"qiyas/internal/crypto"
	"qiyas/internal/domain"
	"qiyas/internal/protocol/identity"
)

// safetyCmd prints the safety number for the given peer, a human-verifiable
// short code that lets both sides of a conversation detect a
// man-in-the-middle at session bootstrap (§4.8).
func safetyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "safety <peer>",
		Short: "Print the safety number shared with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			peer := domain.Username(args[0])

			ourFingerprint, err := appCtx.IdentityService.FingerprintIdentity(passphrase)
			if err != nil {
				return fmt.Errorf("loading your identity: %w", err)
			}

			bundle, err := appCtx.RelayClient.FetchPreKeyBundle(cmd.Context(), peer)
			if err != nil {
				return fmt.Errorf("fetching %q's bundle: %w", peer, err)
			}
			peerFingerprint := domain.Fingerprint(crypto.Fingerprint(bundle.SigningKey.Slice()))

			fmt.Println(identity.SafetyNumber(ourFingerprint, peerFingerprint))
			return nil
		},
	}
	return cmd
}
