package main

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/scene"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/settings"
	"github.com/ayusman/mudra/internal/tray"
)

var noTray bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start hand tracking, the galaxy simulation and the viewer server",
	RunE:  runMudra,
}

func init() {
	runCmd.Flags().String("addr", ":8080", "HTTP listen address")
	runCmd.Flags().String("static-dir", "", "directory holding the web viewer (default: search web/)")
	runCmd.Flags().Int("camera", 0, "camera device index")
	runCmd.Flags().String("preset", "classic", "physics preset for this run")
	runCmd.Flags().BoolVar(&noTray, "no-tray", false, "run without the system tray icon")
	rootCmd.AddCommand(runCmd)
}

func runMudra(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	initial, err := settings.Load(db.Settings())
	if err != nil {
		logger.Warn().Err(err).Msg("Ignoring saved settings")
	}
	if cmd.Flags().Changed("preset") {
		initial.Preset = cfg.Particles.Preset
	}
	if err := initial.Validate(); err != nil {
		return err
	}
	live := settings.NewLive(initial)
	settings.Persist(live, db.Settings(), func(err error) {
		logger.Error().Err(err).Msg("Failed to save settings")
	})

	var (
		hub  *server.SceneHub
		menu *tray.Tray
		hint string
	)
	if !noTray {
		menu = tray.New(live)
	}

	a, err := app.New(app.Options{
		Config:   cfg,
		Store:    db,
		Settings: live,
		Sink: app.SinkFunc(func(snap scene.Snapshot) {
			hub.Publish(snap)
			if menu != nil && snap.Hint != hint {
				hint = snap.Hint
				menu.SetStatus(hint)
			}
		}),
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	hub = server.NewSceneHub(server.HubOptions{
		Galaxy:     a.Driver().Galaxy(),
		Nebula:     a.Nebula(),
		OnViewport: a.Driver().SetViewport,
		Logger:     logging.Component(logger, "scene"),
	})

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir(cfg.Data.Dir)
	}
	if staticDir != "" {
		logger.Info().Str("dir", staticDir).Msg("Serving web viewer")
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Store:     db,
		Settings:  live,
		Hub:       hub,
		Preview:   a.Preview(),
		Session:   a.Driver().Session,
		Logger:    logging.Component(logger, "server"),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx, cfg.Server.Addr)
		cancel()
	}()

	if err := a.Start(); err != nil {
		return err
	}
	logger.Info().Str("session", a.Driver().Session()).Str("addr", cfg.Server.Addr).Msg("Mudra running")

	if menu != nil {
		menu.OnViewer(func() {
			if err := openBrowser(viewerURL(cfg.Server.Addr)); err != nil {
				logger.Warn().Err(err).Msg("Failed to open viewer")
			}
		})
		menu.OnQuit(cancel)
		menu.OnError(func(err error) {
			logger.Warn().Err(err).Msg("Settings change rejected")
		})
		go func() {
			<-ctx.Done()
			menu.Quit()
		}()
		// The tray owns the main thread until it quits.
		menu.Run()
		cancel()
	}
	<-ctx.Done()

	a.Stop()
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("Mudra stopped")
	return nil
}

// findWebDir searches for the web viewer in web, ../web, ../../web and
// <dataDir>/web. It returns "" when none exists.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	dataWeb := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWeb); err == nil && info.IsDir() {
		return dataWeb
	}
	return ""
}

// viewerURL turns a listen address into a local browser URL.
func viewerURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
