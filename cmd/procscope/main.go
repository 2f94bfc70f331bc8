//go:build linux

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ja7ad/procscope/pkg/engine"
	"github.com/ja7ad/procscope/pkg/system/proc"
)

type opts struct {
	interval time.Duration
	samples  int
	sortKey  string
	asc      bool
	filter   string
	tree     bool
	ema      float64
	limit    int
}

func main() {
	var o opts

	root := &cobra.Command{
		Use:   "procscope",
		Short: "Live process monitor",
		Long: `procscope samples the process table and per-core CPU counters on a fixed
cadence, derives per-interval utilization, and prints the process list sorted,
filtered, flat or as a tree.

Examples:
  procscope -i 1s --sort mem
  procscope --tree --filter chrome
  procscope -s 3 --sort cpu --limit 10
  procscope kill 12345 TERM`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), o)
		},
	}

	root.Flags().DurationVarP(&o.interval, "interval", "i", 2*time.Second, "sampling interval (e.g. 1s, 500ms)")
	root.Flags().IntVarP(&o.samples, "samples", "s", 0, "number of samples to print (0 = run until Ctrl-C)")
	root.Flags().StringVar(&o.sortKey, "sort", "cpu", "sort column: cpu, mem, pid, name, user, time")
	root.Flags().BoolVar(&o.asc, "asc", false, "sort ascending instead of the column default")
	root.Flags().StringVar(&o.filter, "filter", "", "case-insensitive substring filter on command names")
	root.Flags().BoolVar(&o.tree, "tree", false, "show the process tree instead of a flat list")
	root.Flags().Float64Var(&o.ema, "ema", 0, "EMA alpha for core utilization smoothing (0..1, 0 = off)")
	root.Flags().IntVar(&o.limit, "limit", 20, "max rows per refresh (0 = all)")

	root.AddCommand(killCmd())

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, o opts) error {
	key, err := engine.ParseSortKey(o.sortKey)
	if err != nil {
		return err
	}
	if o.interval <= 0 {
		return fmt.Errorf("interval must be > 0")
	}
	if o.ema < 0 || o.ema > 1 {
		return fmt.Errorf("ema must be in [0,1]")
	}

	e := engine.New(proc.NewFS(), engine.Config{
		Interval:   o.interval,
		ClockTicks: proc.ClockTicks(),
		EMAAlpha:   o.ema,
	})
	if e.View().Key != key {
		e.SetSortKey(key)
	}
	if o.asc {
		e.SetSortDirection(engine.Asc)
	}
	e.SetFilter(o.filter)
	if o.tree {
		e.ToggleTreeMode()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() { _ = e.Run(ctx) }()

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	printed := 0
	for {
		select {
		case <-ctx.Done():
			slog.Info("interrupted")
			return nil
		case <-ticker.C:
			render(e, o.limit)
			printed++
			if o.samples > 0 && printed >= o.samples {
				return nil
			}
		}
	}
}

func render(e *engine.Engine, limit int) {
	if st := e.Status(); st.Degraded {
		slog.Warn("engine degraded", "reason", st.Reason)
	}

	printHeader(e)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tUSER\tS\tVIRT\tRSS\tCPU%\tMEM%\tTIME+\tCOMMAND")

	rows := e.CurrentView()
	n := len(rows)
	if limit > 0 && n > limit {
		n = limit
	}
	for _, r := range rows[:n] {
		command := r.Proc.Comm
		if r.Depth > 0 {
			command = strings.Repeat("  ", r.Depth) + "└─ " + command
		}
		cpu, mem := fmt.Sprintf("%.1f", r.Metrics.CPUPercent), fmt.Sprintf("%.1f", r.Metrics.MemPercent)
		if r.Metrics.Unavailable {
			cpu, mem = "-", "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%dM\t%dM\t%s\t%s\t%s\t%s\n",
			int(r.Proc.PID), r.Proc.User, r.Proc.State,
			r.Proc.Virtual.MiB(), r.Metrics.Memory.MiB(),
			cpu, mem, formatCPUTime(r.Metrics.CPUTime), command,
		)
	}
	tw.Flush()
	fmt.Println()
}

func printHeader(e *engine.Engine) {
	var b strings.Builder
	for i, pct := range e.CoreUtilization() {
		if i > 0 {
			b.WriteString("  ")
		}
		fmt.Fprintf(&b, "CPU%d %5.1f%%", i, pct)
	}
	fmt.Println(b.String())

	hs := e.HostStats()
	fmt.Printf("Mem[%d/%dMiB]  Swp[%d/%dMiB]\n",
		hs.MemUsed.MiB(), hs.MemTotal.MiB(), hs.SwapUsed.MiB(), hs.SwapTotal.MiB())
	fmt.Printf("Tasks: %d, Load Avg: %.2f %.2f %.2f, Uptime: %s\n",
		e.Tasks(), hs.Load1, hs.Load5, hs.Load15, formatUptime(hs.Uptime))
}

func killCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kill PID [SIGNAL]",
		Short: "Send a signal to a process (default TERM)",
		Long: "Send a signal to a process through the same probe the monitor samples with.\n\nKnown signal names: " +
			signalNames(),
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := strconv.Atoi(args[0])
			if err != nil || pid <= 0 {
				return fmt.Errorf("invalid pid %q", args[0])
			}
			sig := proc.SIGTERM
			if len(args) == 2 {
				if sig, err = proc.ParseSignal(args[1]); err != nil {
					return err
				}
			}
			if err := proc.NewFS().SendSignal(proc.PID(pid), sig); err != nil {
				return err
			}
			fmt.Printf("sent %s to pid %d\n", sig, pid)
			return nil
		},
	}
}

func signalNames() string {
	names := make([]string, 0, len(proc.Signals()))
	for _, s := range proc.Signals() {
		names = append(names, fmt.Sprintf("%s (%d)", s, int(s)))
	}
	return strings.Join(names, ", ")
}

func formatCPUTime(d time.Duration) string {
	secs := int64(d.Seconds())
	mins := secs / 60
	hours := mins / 60
	days := hours / 24
	switch {
	case days > 99:
		return fmt.Sprintf("%dd", days)
	case days > 0:
		return fmt.Sprintf("%02dd%02dh", days, hours%24)
	default:
		return fmt.Sprintf("%02d:%02d:%02d", hours, mins%60, secs%60)
	}
}

func formatUptime(d time.Duration) string {
	secs := int64(d.Seconds())
	days := secs / 86400
	hours := (secs % 86400) / 3600
	mins := (secs % 3600) / 60
	return fmt.Sprintf("%d days, %02d:%02d", days, hours, mins)
}
