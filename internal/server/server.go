// Package server exposes the run engine and its stores as MCP tools over
// stdio or streamable HTTP.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hnakai/screenflow/internal/action"
	"github.com/hnakai/screenflow/internal/engine"
	"github.com/hnakai/screenflow/internal/store"
	"github.com/hnakai/screenflow/internal/version"
)

// Config holds the server transport configuration.
type Config struct {
	Transport string
	Port      int
	// Defaults is merged under per-request run parameters.
	Defaults action.RunConfig
}

// Server wires the executor, the stores, and the MCP tool surface.
type Server struct {
	executor  *engine.Executor
	snippets  *store.SnippetStore
	flows     *store.FlowStore
	templates *store.TemplateStore
	defaults  action.RunConfig
	log       *zap.Logger
	mcp       *mcpserver.MCPServer
}

// New creates and configures an MCP server with all screenflow tools.
func New(executor *engine.Executor, snippets *store.SnippetStore, flows *store.FlowStore,
	templates *store.TemplateStore, cfg Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		executor:  executor,
		snippets:  snippets,
		flows:     flows,
		templates: templates,
		defaults:  cfg.Defaults,
		log:       log,
	}
	s.mcp = mcpserver.NewMCPServer("screenflow", version.Version)
	s.registerTools()
	return s
}

// Serve starts the server with the configured transport.
func (s *Server) Serve(cfg Config) error {
	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		s.log.Info("listening", zap.Int("port", cfg.Port))
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *Server) registerTools() {
	// run_start
	s.mcp.AddTool(
		mcp.NewTool("run_start",
			mcp.WithDescription("Start executing an action sequence against the desktop. Returns a run id immediately; poll run_status for progress. Fails if a run is already active."),
			mcp.WithArray("actions", mcp.Description("Ordered list of action objects (type, image, images, text_id, seconds, count, interval, flow_name, group_name)"), mcp.Required()),
			mcp.WithNumber("confidence", mcp.Description("Top match threshold (default 0.8)")),
			mcp.WithNumber("min_confidence", mcp.Description("Match threshold floor (default 0.7)")),
			mcp.WithNumber("interval", mcp.Description("Pause between actions in seconds (default 2)")),
			mcp.WithNumber("wait_timeout", mcp.Description("Per-wait timeout in seconds (default 30)")),
			mcp.WithNumber("cursor_speed", mcp.Description("Pointer move duration in seconds (default 0.5)")),
			mcp.WithNumber("start_delay", mcp.Description("Delay before the first action in seconds")),
		),
		s.handleRunStart,
	)

	// run_status
	s.mcp.AddTool(
		mcp.NewTool("run_status",
			mcp.WithDescription("Poll the active (or last) run: step counter, outcome log, completed and aborted flags"),
		),
		s.handleRunStatus,
	)

	// run_cancel
	s.mcp.AddTool(
		mcp.NewTool("run_cancel",
			mcp.WithDescription("Request cancellation of the active run. Takes effect at the run's next checkpoint. No-op when idle."),
		),
		s.handleRunCancel,
	)

	// run_flow
	s.mcp.AddTool(
		mcp.NewTool("run_flow",
			mcp.WithDescription("Start a saved flow by name, optionally re-pointing its paste/save_to_file steps at a different snippet"),
			mcp.WithString("name", mcp.Description("Flow name"), mcp.Required()),
			mcp.WithString("text_id", mcp.Description("Snippet id override for paste and save_to_file steps")),
			mcp.WithNumber("confidence", mcp.Description("Top match threshold")),
			mcp.WithNumber("min_confidence", mcp.Description("Match threshold floor")),
			mcp.WithNumber("interval", mcp.Description("Pause between actions in seconds")),
			mcp.WithNumber("wait_timeout", mcp.Description("Per-wait timeout in seconds")),
			mcp.WithNumber("cursor_speed", mcp.Description("Pointer move duration in seconds")),
			mcp.WithNumber("start_delay", mcp.Description("Delay before the first action in seconds")),
		),
		s.handleRunFlow,
	)

	// snippets
	s.mcp.AddTool(
		mcp.NewTool("snippet_add",
			mcp.WithDescription("Store a text snippet; returns its id"),
			mcp.WithString("text", mcp.Description("Snippet text"), mcp.Required()),
		),
		s.handleSnippetAdd,
	)
	s.mcp.AddTool(
		mcp.NewTool("snippet_list",
			mcp.WithDescription("List stored text snippets"),
		),
		s.handleSnippetList,
	)
	s.mcp.AddTool(
		mcp.NewTool("snippet_update",
			mcp.WithDescription("Replace the text of a stored snippet"),
			mcp.WithString("id", mcp.Description("Snippet id"), mcp.Required()),
			mcp.WithString("text", mcp.Description("New text"), mcp.Required()),
		),
		s.handleSnippetUpdate,
	)
	s.mcp.AddTool(
		mcp.NewTool("snippet_delete",
			mcp.WithDescription("Delete a stored snippet"),
			mcp.WithString("id", mcp.Description("Snippet id"), mcp.Required()),
		),
		s.handleSnippetDelete,
	)

	// flows
	s.mcp.AddTool(
		mcp.NewTool("flow_list",
			mcp.WithDescription("List saved flow names"),
		),
		s.handleFlowList,
	)
	s.mcp.AddTool(
		mcp.NewTool("flow_get",
			mcp.WithDescription("Fetch a saved flow by name"),
			mcp.WithString("name", mcp.Description("Flow name"), mcp.Required()),
		),
		s.handleFlowGet,
	)
	s.mcp.AddTool(
		mcp.NewTool("flow_save",
			mcp.WithDescription("Save or replace a named flow"),
			mcp.WithString("name", mcp.Description("Flow name"), mcp.Required()),
			mcp.WithArray("actions", mcp.Description("Ordered list of action objects"), mcp.Required()),
			mcp.WithString("group", mcp.Description("Transcript group label")),
		),
		s.handleFlowSave,
	)
	s.mcp.AddTool(
		mcp.NewTool("flow_delete",
			mcp.WithDescription("Delete a saved flow"),
			mcp.WithString("name", mcp.Description("Flow name"), mcp.Required()),
		),
		s.handleFlowDelete,
	)

	// templates
	s.mcp.AddTool(
		mcp.NewTool("template_list",
			mcp.WithDescription("List available template image names"),
		),
		s.handleTemplateList,
	)
	s.mcp.AddTool(
		mcp.NewTool("template_save",
			mcp.WithDescription("Upload a template image. Name collisions get a numeric suffix; the stored name is returned."),
			mcp.WithString("name", mcp.Description("File name with image extension (png, jpg, bmp, gif)"), mcp.Required()),
			mcp.WithString("data", mcp.Description("Base64-encoded image bytes"), mcp.Required()),
		),
		s.handleTemplateSave,
	)
	s.mcp.AddTool(
		mcp.NewTool("template_delete",
			mcp.WithDescription("Delete a template image"),
			mcp.WithString("name", mcp.Description("Template file name"), mcp.Required()),
		),
		s.handleTemplateDelete,
	)
}
