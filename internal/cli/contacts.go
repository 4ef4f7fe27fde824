package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iamruinous/meshcore-go/internal/logging"
)

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "List contacts known to the device",
	RunE:  runContacts,
}

func init() {
	rootCmd.AddCommand(contactsCmd)
}

func runContacts(_ *cobra.Command, _ []string) error {
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

	contacts, lastMod, err := c.EnumerateContacts(ctx, 0)
	if err != nil {
		return fmt.Errorf("contact enumeration failed: %w", err)
	}

	fmt.Printf("%d contact(s) (cursor=%d):\n", len(contacts), lastMod)
	for _, ct := range contacts {
		fav := ""
		if ct.Favourite() {
			fav = " *"
		}
		fmt.Printf("  %x  %-20s  type=%d%s\n", ct.PublicKey[:6], ct.AdvName, ct.Type, fav)
	}

	return nil
}
