package cmd

import (
	"fmt"
	"time"

	hook "github.com/robotn/gohook"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hnakai/screenflow/internal/config"
	"github.com/hnakai/screenflow/internal/engine"
	"github.com/hnakai/screenflow/internal/logging"
	"github.com/hnakai/screenflow/internal/screen"
	"github.com/hnakai/screenflow/internal/server"
	"github.com/hnakai/screenflow/internal/store"
	"github.com/hnakai/screenflow/internal/transcript"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing the run engine",
	Long: `Start a Model Context Protocol (MCP) server that exposes the action
engine, snippet store, flow store, and template images as tools.

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport (for remote callers)

While serving, pressing Esc twice quickly cancels the active run.

Examples:
  screenflow serve
  screenflow serve --transport streamable-http --port 8080
  screenflow serve --config ./screenflow.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("config", "", "Config file (default: ./screenflow.yaml)")
	serveCmd.Flags().String("transport", "", "Transport: stdio, streamable-http (overrides config)")
	serveCmd.Flags().Int("port", 0, "HTTP port for streamable-http transport (overrides config)")
	serveCmd.Flags().Bool("abort-hotkey", true, "Cancel the active run on double-Esc")
}

func runServe(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if transport, _ := cmd.Flags().GetString("transport"); transport != "" {
		cfg.Server.Transport = transport
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}

	log := logging.New(cfg.Logger)
	defer log.Sync()

	snippets, err := store.NewSnippetStore(cfg.Paths.Texts)
	if err != nil {
		return err
	}
	flows, err := store.NewFlowStore(cfg.Paths.Flows)
	if err != nil {
		return err
	}
	templates, err := store.NewTemplateStore(cfg.Paths.Images)
	if err != nil {
		return err
	}

	executor := engine.New(
		screen.NewRobotProbe(),
		snippets,
		templates,
		transcript.NewWriter(cfg.Paths.Outputs),
		log,
	)

	if abortHotkey, _ := cmd.Flags().GetBool("abort-hotkey"); abortHotkey {
		go listenAbortHotkey(executor, log)
	}

	srvCfg := server.Config{
		Transport: cfg.Server.Transport,
		Port:      cfg.Server.Port,
		Defaults:  cfg.Run,
	}
	srv := server.New(executor, snippets, flows, templates, srvCfg, log)
	log.Info("serving",
		zap.String("transport", cfg.Server.Transport),
		zap.String("images", cfg.Paths.Images),
		zap.String("outputs", cfg.Paths.Outputs))
	if err := srv.Serve(srvCfg); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// doubleEscWindow is how quickly Esc must be pressed twice to cancel a run.
const doubleEscWindow = 500 * time.Millisecond

// listenAbortHotkey cancels the active run on double-Esc. The keyboard hook
// is global, so a runaway click loop can be stopped even while the tool owns
// the pointer.
func listenAbortHotkey(executor *engine.Executor, log *zap.Logger) {
	var lastEsc time.Time
	hook.Register(hook.KeyDown, []string{"esc"}, func(e hook.Event) {
		now := time.Now()
		if now.Sub(lastEsc) <= doubleEscWindow {
			if executor.Cancel() {
				log.Warn("double-Esc pressed, cancelling active run")
			}
		}
		lastEsc = now
	})
	s := hook.Start()
	<-hook.Process(s)
}
