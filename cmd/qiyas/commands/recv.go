package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"qiyas/internal/domain"
)

// recvCmd fetches and decrypts pending messages addressed to the local user.
func recvCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recv",
		Short: "Fetch and decrypt pending messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			messages, err := appCtx.MessageService.ReceiveMessage(
				cmd.Context(),
				passphrase,
				domain.Username(username),
				limit,
			)
			if err != nil {
				return fmt.Errorf("receiving messages: %w", err)
			}

			if len(messages) == 0 {
				fmt.Println("No new messages")
				return nil
			}
			for _, msg := range messages {
				fmt.Printf("[%s] %s\n", msg.From, msg.Plaintext)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "your registered username")
	_ = cmd.MarkFlagRequired("username")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of messages to fetch")

	return cmd
}
