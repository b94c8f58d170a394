package commands

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"qiyas/internal/domain"
	"qiyas/internal/protocol/fragment"
)

// fragmentCmd groups the Reed-Solomon fragmenter subcommands (§4.7),
// operating on local files so the codec can be exercised independently of
// any transport.
func fragmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fragment",
		Short: "Split or reconstruct a file using the Reed-Solomon fragmenter",
	}
	cmd.AddCommand(fragmentSplitCmd(), fragmentReconstructCmd())
	return cmd
}

func fragmentSplitCmd() *cobra.Command {
	var dataShards, parityShards int

	cmd := &cobra.Command{
		Use:   "split <input-file> <output-set.json>",
		Short: "Split a file into a Reed-Solomon fragment set",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %q: %w", args[0], err)
			}

			var messageID [32]byte
			if _, err := rand.Read(messageID[:]); err != nil {
				return err
			}

			set, err := fragment.Split(messageID, data, dataShards, parityShards, time.Now().Unix())
			if err != nil {
				return fmt.Errorf("splitting: %w", err)
			}

			out, err := json.MarshalIndent(set, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], out, 0o600); err != nil {
				return fmt.Errorf("writing %q: %w", args[1], err)
			}

			fmt.Printf("Wrote %d fragments (%d data, %d parity) to %s\n", len(set.Fragments), set.DataShards, set.ParityShards, args[1])
			return nil
		},
	}

	cmd.Flags().IntVar(&dataShards, "data-shards", fragment.DefaultDataShards, "number of data shards")
	cmd.Flags().IntVar(&parityShards, "parity-shards", fragment.DefaultParityShards, "number of parity shards")
	return cmd
}

func fragmentReconstructCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconstruct <set.json> <output-file>",
		Short: "Reconstruct the original file from a fragment set",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %q: %w", args[0], err)
			}

			var set domain.FragmentSet
			if err := json.Unmarshal(raw, &set); err != nil {
				return fmt.Errorf("parsing %q: %w", args[0], err)
			}

			data, err := fragment.Reconstruct(set)
			if err != nil {
				return fmt.Errorf("reconstructing: %w", err)
			}

			if err := os.WriteFile(args[1], data, 0o600); err != nil {
				return fmt.Errorf("writing %q: %w", args[1], err)
			}

			fmt.Printf("Reconstructed %d bytes to %s\n", len(data), args[1])
			return nil
		},
	}
}
