package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"gooze.dev/pkg/crucible/internal/adapter"
	"gooze.dev/pkg/crucible/internal/childproc"
	"gooze.dev/pkg/crucible/internal/ipc"
	"gooze.dev/pkg/crucible/internal/worker"
)

// workerCmd is the entrypoint of worker processes. It is started by the
// parent with the message channel on fd 3 and 4 and is not meant to be run
// by hand.
var workerCmd = newWorkerCmd()

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:    childproc.WorkerCommand,
		Short:  "Serve a plugin for a parent crucible process",
		Hidden: true,
		// Workers log to stderr, which the parent captures.
		PersistentPreRun: func(*cobra.Command, []string) {},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			in, out, err := ipc.OpenWorkerChannel()
			if err != nil {
				return err
			}

			defer func() {
				_ = in.Close()
				_ = out.Close()
			}()

			dispatcher := worker.NewDispatcher(adapter.DefaultRegistry(), in, out, worker.WithLogOutput(os.Stderr))

			return dispatcher.Serve(ctx)
		},
	}
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
