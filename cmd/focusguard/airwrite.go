package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/focusguard/internal/airwriter"
	"github.com/ayusman/focusguard/internal/app"
	"github.com/ayusman/focusguard/internal/capture"
	"github.com/ayusman/focusguard/internal/detector"
)

var (
	airwriteServe  bool
	airwriteAddr   string
	airwriteOutput string
	airwriteGate   bool
	airwriteMirror bool
)

func newAirwriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "airwrite",
		Short: "Draw in the air with hand gestures",
		Long: "One finger draws, two fingers change color, an open palm erases, a fist\n" +
			"lifts the pen and a thumbs-up saves the canvas. Pinch to set the thickness.",
		Args: cobra.NoArgs,
		RunE: runAirwriteCmd,
	}
	cmd.Flags().BoolVar(&airwriteServe, "serve", true, "serve the canvas stream and live feed")
	cmd.Flags().StringVar(&airwriteAddr, "addr", "", "HTTP listen address (default from config)")
	cmd.Flags().StringVar(&airwriteOutput, "output", "", "directory for saved drawings (default from config)")
	cmd.Flags().BoolVar(&airwriteGate, "motion-gate", true, "skip hand detection on still frames")
	cmd.Flags().BoolVar(&airwriteMirror, "mirror", true, "mirror the canvas like a selfie view")
	return cmd
}

func runAirwriteCmd(cmd *cobra.Command, _ []string) error {
	applyStringFlag(cmd, "addr", &settings.Addr, airwriteAddr)
	applyStringFlag(cmd, "output", &settings.Airwriter.OutputDir, airwriteOutput)
	applyBoolFlag(cmd, "motion-gate", &settings.MotionGate, airwriteGate)
	applyBoolFlag(cmd, "mirror", &settings.Airwriter.Mirror, airwriteMirror)

	if err := os.MkdirAll(settings.Airwriter.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	hands, err := detector.NewMediaPipeDetector(settings.Hand)
	if err != nil {
		return fmt.Errorf("hand detection unavailable: %w", err)
	}
	defer hands.Close()

	canvas, err := airwriter.NewController(settings.Airwriter)
	if err != nil {
		return err
	}
	defer canvas.Close()

	env, err := newRuntimeEnv(context.Background())
	if err != nil {
		return err
	}
	defer env.Close()

	camCfg := settings.Camera
	camCfg.FPS = app.ActiveFPS
	aw := app.NewAirWriter(app.AirWriterConfig{
		MotionGate: settings.MotionGate,
		Motion:     capture.DefaultMotionConfig(),
		Publisher:  env.hub,
	}, capture.NewCamera(camCfg), hands, canvas)
	env.hub.SetControl(aw)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if settings.Addr != "" && airwriteServe {
		env.serve(ctx, settings.Addr, canvas)
		fmt.Fprintf(cmd.ErrOrStderr(), "Canvas at http://%s/api/canvas/stream\n", settings.Addr)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Air writing. Drawings are saved to %s. Press Ctrl+C to stop.\n", settings.Airwriter.OutputDir)

	return aw.Run(ctx)
}
