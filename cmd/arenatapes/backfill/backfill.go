// Package backfillcmder provides the `arenatapes backfill` CLI command.
package backfillcmder

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/arenatapes/cmd/arenatapes/pipeline"
	"github.com/papercomputeco/arenatapes/pkg/cliui"
	"github.com/papercomputeco/arenatapes/pkg/config"
	"github.com/papercomputeco/arenatapes/pkg/diagnostics"
)

const backfillLongDesc string = `Backfill matches and drafts from a finished client log.

Reads the given Player.log (or a saved Player-prev.log) once from the
beginning, delivers every completed match and draft to the configured
sinks, and exits. Nothing is deduplicated against earlier runs.

Examples:
  arenatapes backfill Player-prev.log --json-dir ./replays
  arenatapes backfill ~/Player.log --sqlite arenatapes.db`

const backfillShortDesc string = "Deliver matches and drafts from a finished log"

// queueSize lets a whole log of completions queue while sinks catch up.
const queueSize = 4096

type backfillCommander struct {
	sinkFlags pipeline.SinkFlags
	verbose   bool
}

// NewBackfillCmd creates the backfill cobra command.
func NewBackfillCmd() *cobra.Command {
	cmder := &backfillCommander{}

	cmd := &cobra.Command{
		Use:   "backfill <log>",
		Short: backfillShortDesc,
		Long:  backfillLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfg, err := pipeline.LoadConfig(cmd, configDir, pipeline.SinkFlagKeys)
			if err != nil {
				return err
			}
			return cmder.run(cmd.Context(), cmd, cfg, args[0])
		},
	}

	cmder.sinkFlags.Register(cmd)
	cmd.Flags().BoolVarP(&cmder.verbose, "verbose", "v", false, "Log every delivery to stderr")

	return cmd
}

func (c *backfillCommander) run(ctx context.Context, cmd *cobra.Command, cfg *config.Config, path string) error {
	out := cmd.OutOrStdout()

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reading log: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("reading log: %s is a directory", path)
	}

	debug, _ := cmd.Flags().GetBool("debug")
	log := pipeline.NewLogger(io.Discard, false, true)
	if c.verbose || debug {
		log = pipeline.NewLogger(cmd.ErrOrStderr(), debug, false)
	}

	fmt.Fprintf(out, "\n  %s %s\n\n", cliui.HeaderStyle.Render("Backfilling"), cliui.DimStyle.Render(path))

	var p *pipeline.Pipeline
	err = cliui.Step(out, "Opening sinks", func() error {
		var err error
		p, err = pipeline.Open(ctx, cfg, log, queueSize)
		return err
	})
	if err != nil {
		return err
	}

	readErr := cliui.Step(out, "Reading log", func() error {
		orch, err := p.Orchestrator(path, false, nil)
		if err != nil {
			return err
		}
		return orch.Flush()
	})

	closeErr := cliui.Step(out, "Delivering", p.Close)

	printSummary(out, p.Sinks.Names(), p.Stats.Snapshot())

	if readErr != nil {
		return readErr
	}
	return closeErr
}

func printSummary(w io.Writer, sinks []string, snap diagnostics.Snapshot) {
	fmt.Fprintln(w)
	rows := []struct {
		key   string
		value int64
	}{
		{"objects", snap.Objects},
		{"replays", snap.ReplaysEmitted},
		{"drafts", snap.DraftsEmitted},
		{"parse failures", snap.ParseFailures},
		{"build failures", snap.BuildFailures},
		{"sink errors", snap.SinkErrors},
		{"dropped", snap.DispatchDropped},
	}
	fmt.Fprintln(w, cliui.Row("sinks", fmt.Sprint(sinks)))
	for _, row := range rows {
		fmt.Fprintln(w, cliui.Row(row.key, fmt.Sprint(row.value)))
	}
	fmt.Fprintln(w)
}
