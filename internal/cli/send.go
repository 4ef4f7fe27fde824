package cli

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iamruinous/meshcore-go/internal/logging"
)

var (
	sendChannelIdx uint8
	sendTxtType    uint8
)

var sendContactCmd = &cobra.Command{
	Use:   "send-contact <pubkey-prefix-hex> <message>",
	Short: "Send a text message to a contact identified by its 6-byte public-key prefix",
	Args:  cobra.ExactArgs(2),
	RunE:  runSendContact,
}

var sendChannelCmd = &cobra.Command{
	Use:   "send-channel <message>",
	Short: "Send a text message to a channel",
	Args:  cobra.ExactArgs(1),
	RunE:  runSendChannel,
}

func init() {
	rootCmd.AddCommand(sendContactCmd)
	rootCmd.AddCommand(sendChannelCmd)

	sendChannelCmd.Flags().Uint8Var(&sendChannelIdx, "index", 0, "channel index")
	sendContactCmd.Flags().Uint8Var(&sendTxtType, "txt-type", 0, "message txt_type byte")
}

func runSendContact(_ *cobra.Command, args []string) error {
	prefixHex, content := args[0], args[1]
	raw, err := hex.DecodeString(prefixHex)
	if err != nil || len(raw) != 6 {
		return fmt.Errorf("pubkey prefix must be exactly 6 hex-encoded bytes")
	}
	var prefix [6]byte
	copy(prefix[:], raw)

	cfg, err := loadAndValidate()
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}
	defer logging.Sync()

	ctx := context.Background()
	c, teardown, err := connectClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := teardown(); err != nil {
			logging.Warn("error disconnecting", zap.Error(err))
		}
	}()

	ack, err := c.SendToContact(ctx, prefix, sendTxtType, content)
	if err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	fmt.Printf("sent, tag=%d\n", ack.Tag)
	return nil
}

func runSendChannel(_ *cobra.Command, args []string) error {
	content := args[0]

	cfg, err := loadAndValidate()
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}
	defer logging.Sync()

	ctx := context.Background()
	c, teardown, err := connectClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := teardown(); err != nil {
			logging.Warn("error disconnecting", zap.Error(err))
		}
	}()

	ack, err := c.SendToChannel(ctx, sendChannelIdx, 0, content)
	if err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	fmt.Printf("sent, tag=%d\n", ack.Tag)
	return nil
}
