package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ayusman/focusguard/internal/app"
	"github.com/ayusman/focusguard/internal/capture"
	"github.com/ayusman/focusguard/internal/detector"
	"github.com/ayusman/focusguard/internal/effects"
	"github.com/ayusman/focusguard/internal/log"
	"github.com/ayusman/focusguard/internal/report"
	"github.com/ayusman/focusguard/internal/session"
	"github.com/ayusman/focusguard/internal/tray"
)

var (
	monitorSubject string
	monitorLast    bool
	monitorPhrases string
	monitorServe   bool
	monitorAddr    string
	monitorTray    bool
	monitorQuiet   bool
)

func newMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run a presence-monitored study session",
		Long: "Watches the camera for a face and escalates from a spoken warning to an alarm\n" +
			"while you are away. The session is graded and saved when you stop it.",
		Args: cobra.NoArgs,
		RunE: runMonitorCmd,
	}
	cmd.Flags().StringVar(&monitorSubject, "subject", "", "subject to study (default from config)")
	cmd.Flags().BoolVar(&monitorLast, "last", false, "reuse the subject of the previous session")
	cmd.Flags().StringVar(&monitorPhrases, "phrases", "", "announcement preset ("+strings.Join(session.PhrasePresetNames(), ", ")+")")
	cmd.Flags().BoolVar(&monitorServe, "serve", false, "serve the dashboard and live feed while monitoring")
	cmd.Flags().StringVar(&monitorAddr, "addr", "", "HTTP listen address (default from config)")
	cmd.Flags().BoolVar(&monitorTray, "tray", false, "show a system tray menu")
	cmd.Flags().BoolVar(&monitorQuiet, "quiet", false, "do not print the live status line")
	return cmd
}

func runMonitorCmd(cmd *cobra.Command, _ []string) error {
	applyStringFlag(cmd, "addr", &settings.Addr, monitorAddr)
	if cmd.Flags().Changed("phrases") {
		p, ok := session.PhrasesByName(monitorPhrases)
		if !ok {
			return fmt.Errorf("unknown phrases preset %q", monitorPhrases)
		}
		settings.PhrasesName, settings.Phrases = monitorPhrases, p
	}

	env, err := newRuntimeEnv(context.Background())
	if err != nil {
		return err
	}
	defer env.Close()

	name := settings.Subject
	if monitorLast {
		if last := lastSubject(cmd.Context(), env.store); last != "" {
			name = last
		}
	}
	applyStringFlag(cmd, "subject", &name, monitorSubject)
	subject := resolveSubject(name)

	faces, err := detector.NewYuNetDetector(settings.Face)
	if err != nil {
		return fmt.Errorf("failed to load face detector (see `focusguard config`): %w", err)
	}
	defer faces.Close()

	camCfg := settings.Camera
	camera := capture.NewCamera(camCfg)

	m := app.NewMonitor(app.MonitorConfig{
		Subject:   subject,
		Phrases:   settings.Phrases,
		Interval:  time.Second / time.Duration(camCfg.FPS),
		Sink:      effects.Multi(effects.LogSink{Subject: subject.Name}, env.dispatcher.Sink(subject.Name)),
		Recorder:  env.store,
		Settings:  env.store.Settings(),
		Effects:   env.dispatcher,
		Publisher: env.hub,
	}, camera, faces)
	env.hub.SetControl(m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if monitorServe {
		env.serve(ctx, settings.Addr, nil)
	}

	var tr *tray.Tray
	if monitorTray {
		tr = tray.New("FocusGuard")
		tr.OnPause(m.SetPaused)
		tr.OnQuit(stop)
		if monitorServe {
			tr.OnOpen(func() { openBrowser("http://" + settings.Addr) })
		}
	}

	// The status line redraws in place, which only works on a terminal.
	live := !monitorQuiet && term.IsTerminal(int(os.Stderr.Fd()))
	go showStatus(ctx, m, tr, live)

	fmt.Fprintf(cmd.ErrOrStderr(), "Monitoring %s (warning after %s, alarm after %s). Press Ctrl+C to finish.\n",
		subject.Name, subject.WarningDelay, subject.AlarmDelay)

	type result struct {
		rec *session.Record
		err error
	}
	done := make(chan result, 1)
	go func() {
		rec, err := m.Run(ctx)
		done <- result{rec, err}
		if tr != nil {
			tr.Quit()
		}
	}()

	if tr != nil {
		tr.Run()
		stop()
	}
	res := <-done
	if live {
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if res.rec != nil {
		fmt.Fprintln(cmd.OutOrStdout(), report.Record(res.rec))
	}
	return res.err
}

// resolveSubject looks name up. Unknown names keep their name but use the
// default subject's timings.
func resolveSubject(name string) session.SubjectConfig {
	cfg := settings.Subjects.Lookup(name)
	if !settings.Subjects.Has(name) {
		log.Warn("unknown subject, using default timings", "subject", name, "default", session.DefaultSubject)
		cfg.Name = name
	}
	return cfg
}

// showStatus refreshes the terminal status line and the tray once a second.
func showStatus(ctx context.Context, m *app.Monitor, tr *tray.Tray, live bool) {
	ticker := time.NewTicker(app.SnapshotInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := m.Snapshot()
			if live {
				fmt.Fprintf(os.Stderr, "\r\033[K%s", report.Status(snap))
			}
			if tr != nil {
				tr.SetPaused(snap.Paused)
				tr.SetStatus(fmt.Sprintf("%s · %.0f%%", snap.State.Label(), snap.FocusPercentage))
			}
		}
	}
}
