package selftest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/uniyakcom/relay/config"
	"github.com/uniyakcom/relay/core"
	"github.com/uniyakcom/relay/internal/impl/timer"
	"github.com/uniyakcom/relay/internal/impl/worker"
	"github.com/uniyakcom/relay/logging"
)

// ErrFailed 自检以 Failed 结束
var ErrFailed = errors.New("selftest: failed")

// printer UI worker 上的控制台输出，只在 UI worker 上访问
type printer struct {
	out  io.Writer
	n    int
	line *color.Color
	ok   *color.Color
	bad  *color.Color
}

func newPrinter(out io.Writer) *printer {
	return &printer{
		out:  out,
		line: color.New(color.FgCyan),
		ok:   color.New(color.FgGreen, color.Bold),
		bad:  color.New(color.FgRed, color.Bold),
	}
}

func (p *printer) status(s Status, _ any) {
	p.n++
	p.line.Fprintf(p.out, "%3d  %s\n", p.n, s.Message)
}

func (p *printer) finish(passed bool) {
	if passed {
		p.ok.Fprintf(p.out, "self-test passed (%d steps)\n", p.n)
		return
	}
	p.bad.Fprintf(p.out, "self-test FAILED after %d steps\n", p.n)
}

// Run 在新的 worker 组上完整运行一次自检，进度写入 out
//
// ctx 取消时请求引擎取消并等待其以 Failed 结束。
func Run(ctx context.Context, cfg config.Config, out io.Writer) (err error) {
	log := logging.Component("selftest")

	g, err := worker.NewGroup(cfg.Worker.PoolSize,
		worker.WithTickInterval(cfg.Worker.TickInterval),
		worker.WithLockOSThread(cfg.Worker.LockOSThread),
	)
	if err != nil {
		return err
	}
	defer func() {
		if xerr := g.Exit(); xerr != nil {
			err = errors.Join(err, xerr)
		}
	}()

	ui, err := g.Spawn("ui")
	if err != nil {
		return fmt.Errorf("selftest: spawn ui worker: %w", err)
	}
	sched := timer.NewScheduler()
	engThread, err := g.Spawn("engine", worker.WithScheduler(sched))
	if err != nil {
		return fmt.Errorf("selftest: spawn engine worker: %w", err)
	}

	eng := NewEngine(engThread, sched, Options{
		PollInterval:   cfg.Selftest.PollInterval,
		TargetSpeed:    cfg.Selftest.TargetSpeed,
		PressureChecks: cfg.Selftest.PressureChecks,
	})

	p := newPrinter(out)
	outcome := make(chan error, 1)
	report := func(res error) {
		select {
		case outcome <- res:
		default:
		}
	}
	eng.Status.Register(p.status, ui, nil)
	eng.Completed.Register(func(core.NoData, any) {
		p.finish(true)
		report(nil)
	}, ui, nil)
	eng.Failed.Register(func(core.NoData, any) {
		p.finish(false)
		report(ErrFailed)
	}, ui, nil)

	log.Info().Str("engine", engThread.ID().String()).Str("ui", ui.ID().String()).Msg("self-test starting")
	eng.Start()

	select {
	case res := <-outcome:
		return res
	case <-ctx.Done():
		log.Warn().Err(ctx.Err()).Msg("self-test interrupted")
		eng.Cancel()
		return errors.Join(ctx.Err(), <-outcome)
	}
}
