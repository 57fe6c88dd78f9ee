package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/MeKo-Tech/undertone/internal/acquire"
	"github.com/MeKo-Tech/undertone/internal/device"
	"github.com/MeKo-Tech/undertone/internal/imageio"
	"github.com/MeKo-Tech/undertone/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Classify undertone live from a camera",
	Long: `Open a camera and classify every frame until you quit.

Press 's' to save the current frame and 'q' to quit. With --headless (or in
builds without OpenCV) labels are printed to the terminal and keys are read
from it. --replay plays image files as if they came from a camera.`,
	Args: cobra.NoArgs,
	RunE: runLive,
}

func init() {
	rootCmd.AddCommand(liveCmd)

	liveCmd.Flags().Int("device", 0, "Camera device index")
	liveCmd.Flags().Int("attempts", acquire.DefaultRetryPolicy.MaxAttempts, "Camera open attempts before giving up")
	liveCmd.Flags().Duration("retry-delay", acquire.DefaultRetryPolicy.Delay, "Delay between camera open attempts")
	liveCmd.Flags().String("snapshot", imageio.DefaultSnapshotPath, "Snapshot file written when 's' is pressed")
	liveCmd.Flags().Bool("headless", false, "Print labels instead of opening a window")
	liveCmd.Flags().String("window", "Live Undertone Detection", "Window title")
	liveCmd.Flags().StringSlice("replay", nil, "Image files to play instead of a camera")
	liveCmd.Flags().Duration("replay-interval", 500*time.Millisecond, "Delay between replayed frames")
	liveCmd.Flags().Bool("loop", false, "Loop the replayed images until quit")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"live.device", "device"},
		{"live.attempts", "attempts"},
		{"live.retry_delay", "retry-delay"},
		{"live.snapshot", "snapshot"},
		{"live.headless", "headless"},
		{"live.window", "window"},
		{"live.replay", "replay"},
		{"live.replay_interval", "replay-interval"},
		{"live.loop", "loop"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, liveCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	deviceID := viper.GetInt("live.device")
	attempts := viper.GetInt("live.attempts")
	retryDelay := viper.GetDuration("live.retry_delay")
	snapshotPath := viper.GetString("live.snapshot")
	headless := viper.GetBool("live.headless")
	windowTitle := viper.GetString("live.window")
	replay := viper.GetStringSlice("live.replay")
	replayInterval := viper.GetDuration("live.replay_interval")
	loop := viper.GetBool("live.loop")

	if logger == nil {
		initLogging()
	}

	var dev acquire.Device
	switch {
	case len(replay) > 0:
		dev = device.Replay{Paths: replay, Interval: replayInterval, Loop: loop}
	case cameraSupported:
		dev = openCamera(deviceID)
	default:
		return errors.New("this build has no camera support (rebuild with -tags cv, or use --replay)")
	}

	out := cmd.OutOrStdout()
	cfg := acquire.Config{
		Device:   dev,
		Analyzer: pipeline.NewAnalyzer(logger),
		Snapshot: device.SnapshotFile{Path: snapshotPath},
		Retry:    acquire.RetryPolicy{MaxAttempts: attempts, Delay: retryDelay},
		Logger:   logger,
	}

	if headless || !cameraSupported {
		if keys := terminalKeys(); keys != nil {
			defer keys.Close()
			cfg.Input = keys
			out = device.CRLF(out)
			initLoggingTo(device.CRLF(os.Stderr))
			cfg.Logger = logger
			cfg.Analyzer = pipeline.NewAnalyzer(logger)
		}
		cfg.Display = device.NewLogDisplay(out, logger)
		fmt.Fprintln(out, "Press 's' to save, 'q' to quit")
	} else {
		win, err := newWindow(windowTitle)
		if err != nil {
			return err
		}
		defer win.Close()
		cfg.Display = win
		cfg.Input = win
	}
	cfg.Reporter = device.NewReporter(out, logger)

	ctx, cancel := signalContext()
	defer cancel()

	session := acquire.NewSession(cfg)
	logger.Info("Starting live analysis", "source", dev.Name(), "attempts", attempts, "retry_delay", retryDelay)

	if err := session.Run(ctx); err != nil && !errors.Is(err, ctx.Err()) {
		return err
	}

	logger.Info("Live analysis stopped", "frames", session.Frames())
	return nil
}

// terminalKeys reads keys from stdin in raw mode, or returns nil when stdin
// is not a terminal. Output needs explicit carriage returns while raw mode
// is active.
func terminalKeys() *device.KeyInput {
	k, err := device.OpenTerminal(os.Stdin)
	if err != nil {
		logger.Warn("Keyboard commands unavailable", "error", err)
		return nil
	}
	return k
}
