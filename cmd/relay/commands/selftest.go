package commands

import (
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/uniyakcom/relay/internal/selftest"
)

// lockedWriter 多个 UI worker 共享一个输出
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func newSelftestCommand(a *app) *cobra.Command {
	var parallel int

	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Run the centrifuge and pressure self-test on dedicated workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if parallel < 1 {
				return fmt.Errorf("--parallel must be >= 1, got %d", parallel)
			}
			out := &lockedWriter{w: cmd.OutOrStdout()}

			// 每一轮有独立的 worker 组，任一轮失败即取消其余
			eg, ctx := errgroup.WithContext(cmd.Context())
			for i := 0; i < parallel; i++ {
				eg.Go(func() error {
					if err := selftest.Run(ctx, a.cfg, out); err != nil {
						return fmt.Errorf("self-test %d: %w", i+1, err)
					}
					return nil
				})
			}
			return eg.Wait()
		},
	}

	cmd.Flags().IntVarP(&parallel, "parallel", "p", 1, "Number of independent self-tests to run concurrently")
	return cmd
}
