package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"qiyas/internal/domain"
	"qiyas/internal/protocol/chain"
)

// chainCmd groups the hash-chain inspection subcommands (§4.6).
func chainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Inspect a conversation's append-only hash chain",
	}
	cmd.AddCommand(chainExportCmd(), chainVerifyCmd())
	return cmd
}

func chainExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <peer>",
		Short: "Print the chain proof for a conversation as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			peer := domain.ConversationID(args[0])

			conversation, found, err := appCtx.RatchetStore.LoadConversation(peer)
			if err != nil {
				return fmt.Errorf("loading conversation: %w", err)
			}
			if !found {
				return fmt.Errorf("no conversation with %q", peer)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(conversation.Chain)
		},
	}
}

func chainVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <peer>",
		Short: "Verify the stored chain proof for a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			peer := domain.ConversationID(args[0])

			conversation, found, err := appCtx.RatchetStore.LoadConversation(peer)
			if err != nil {
				return fmt.Errorf("loading conversation: %w", err)
			}
			if !found {
				return fmt.Errorf("no conversation with %q", peer)
			}

			if !chain.VerifyProof(conversation.Chain) {
				return fmt.Errorf("chain proof for %q failed verification", peer)
			}
			fmt.Printf("Chain proof for %q verified: %d links\n", peer, len(conversation.Chain.Links))
			return nil
		},
	}
}
