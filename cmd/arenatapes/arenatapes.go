// Package arenatapescmder
package arenatapescmder

import (
	"github.com/spf13/cobra"

	backfillcmder "github.com/papercomputeco/arenatapes/cmd/arenatapes/backfill"
	configcmder "github.com/papercomputeco/arenatapes/cmd/arenatapes/config"
	watchcmder "github.com/papercomputeco/arenatapes/cmd/arenatapes/watch"
	versioncmder "github.com/papercomputeco/arenatapes/cmd/version"
)

const arenatapesLongDesc string = `arenatapes records MTG Arena matches and drafts from the client log.

Run it using:
  arenatapes watch               Follow Player.log and deliver to sinks
  arenatapes backfill <log>      Deliver everything in a finished log
  arenatapes config list         Show persistent configuration`

const arenatapesShortDesc string = "arenatapes - MTG Arena match and draft recorder"

func NewArenatapesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "arenatapes",
		Short:        arenatapesShortDesc,
		Long:         arenatapesLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .arenatapes/ configuration directory")

	// Add subcommands
	cmd.AddCommand(watchcmder.NewWatchCmd())
	cmd.AddCommand(backfillcmder.NewBackfillCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
