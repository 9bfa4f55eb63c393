package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hnakai/screenflow/internal/action"
	"github.com/hnakai/screenflow/internal/engine"
	"github.com/hnakai/screenflow/internal/store"
)

// toYAML serializes a result for an MCP text response.
func toYAML(v interface{}) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("marshal error: %v", err)
	}
	return string(b)
}

// runAck is the immediate response to a start request.
type runAck struct {
	OK    bool   `yaml:"ok"`
	RunID string `yaml:"run_id"`
	Steps int    `yaml:"steps"`
}

// runConfigFromParams merges request parameters over the server defaults.
func (s *Server) runConfigFromParams(params map[string]interface{}) action.RunConfig {
	cfg := s.defaults
	if v, ok := floatParam(params, "confidence"); ok {
		cfg.Confidence = v
	}
	if v, ok := floatParam(params, "min_confidence"); ok {
		cfg.MinConfidence = v
	}
	if v, ok := floatParam(params, "interval"); ok {
		cfg.Interval = v
	}
	if v, ok := floatParam(params, "wait_timeout"); ok {
		cfg.WaitTimeout = v
	}
	if v, ok := floatParam(params, "cursor_speed"); ok {
		cfg.CursorSpeed = v
	}
	if v, ok := floatParam(params, "start_delay"); ok {
		cfg.StartDelay = v
	}
	cfg.ApplyDefaults()
	return cfg
}

// actionsFromParam decodes the raw MCP array into typed actions via a JSON
// round-trip, then validates them.
func actionsFromParam(raw interface{}) ([]action.Action, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode actions: %w", err)
	}
	var actions []action.Action
	if err := json.Unmarshal(data, &actions); err != nil {
		return nil, fmt.Errorf("parse actions: %w", err)
	}
	if err := action.ValidateAll(actions); err != nil {
		return nil, err
	}
	return actions, nil
}

func (s *Server) handleRunStart(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	raw, ok := params["actions"]
	if !ok {
		return mcp.NewToolResultError("actions parameter is required"), nil
	}
	actions, err := actionsFromParam(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cfg := s.runConfigFromParams(params)

	runID, err := s.executor.Start(actions, cfg)
	if err != nil {
		if errors.Is(err, engine.ErrRunActive) {
			return mcp.NewToolResultError("conflict: a run is already active"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.log.Info("run accepted", zap.String("run_id", runID), zap.Int("steps", len(actions)))
	return mcp.NewToolResultText(toYAML(runAck{OK: true, RunID: runID, Steps: len(actions)})), nil
}

func (s *Server) handleRunStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(toYAML(s.executor.State().Snapshot())), nil
}

func (s *Server) handleRunCancel(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	active := s.executor.Cancel()
	type cancelResult struct {
		OK        bool `yaml:"ok"`
		WasActive bool `yaml:"was_active"`
	}
	return mcp.NewToolResultText(toYAML(cancelResult{OK: true, WasActive: active})), nil
}

func (s *Server) handleRunFlow(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	name := stringParam(params, "name", "")
	if name == "" {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	flow, ok := s.flows.Get(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("flow not found: %s", name)), nil
	}

	actions := flow.Actions
	if textID := stringParam(params, "text_id", ""); textID != "" {
		actions = retargetSnippet(actions, textID, name, flow.Group)
	}
	cfg := s.runConfigFromParams(params)

	runID, err := s.executor.Start(actions, cfg)
	if err != nil {
		if errors.Is(err, engine.ErrRunActive) {
			return mcp.NewToolResultError("conflict: a run is already active"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.log.Info("flow started", zap.String("flow", name), zap.String("run_id", runID))
	return mcp.NewToolResultText(toYAML(runAck{OK: true, RunID: runID, Steps: len(actions)})), nil
}

// retargetSnippet points every paste and save_to_file step at the given
// snippet and stamps the flow/group labels used for the transcript file.
func retargetSnippet(actions []action.Action, textID, flowName, groupName string) []action.Action {
	out := make([]action.Action, len(actions))
	copy(out, actions)
	for i := range out {
		switch out[i].Type {
		case action.KindPaste:
			out[i].TextID = textID
		case action.KindSaveToFile:
			out[i].TextID = textID
			out[i].FlowName = flowName
			out[i].GroupName = groupName
		}
	}
	return out
}

func (s *Server) handleSnippetAdd(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := stringParam(request.GetArguments(), "text", "")
	id, err := s.snippets.Add(text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	type addResult struct {
		OK bool   `yaml:"ok"`
		ID string `yaml:"id"`
	}
	return mcp.NewToolResultText(toYAML(addResult{OK: true, ID: id})), nil
}

func (s *Server) handleSnippetList(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(toYAML(s.snippets.List())), nil
}

func (s *Server) handleSnippetUpdate(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	if err := s.snippets.Update(stringParam(params, "id", ""), stringParam(params, "text", "")); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("ok: true\n"), nil
}

func (s *Server) handleSnippetDelete(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.snippets.Delete(stringParam(request.GetArguments(), "id", "")); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("ok: true\n"), nil
}

func (s *Server) handleFlowList(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(toYAML(s.flows.Names())), nil
}

func (s *Server) handleFlowGet(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := stringParam(request.GetArguments(), "name", "")
	flow, ok := s.flows.Get(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("flow not found: %s", name)), nil
	}
	return mcp.NewToolResultText(toYAML(flow)), nil
}

func (s *Server) handleFlowSave(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	name := stringParam(params, "name", "")
	raw, ok := params["actions"]
	if !ok {
		return mcp.NewToolResultError("actions parameter is required"), nil
	}
	actions, err := actionsFromParam(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	flow := store.Flow{Actions: actions, Group: stringParam(params, "group", "")}
	if err := s.flows.Save(name, flow); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("ok: true\n"), nil
}

func (s *Server) handleFlowDelete(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.flows.Delete(stringParam(request.GetArguments(), "name", "")); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("ok: true\n"), nil
}

func (s *Server) handleTemplateList(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.templates.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(toYAML(names)), nil
}

func (s *Server) handleTemplateSave(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	data, err := base64.StdEncoding.DecodeString(stringParam(params, "data", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("decode image data: %v", err)), nil
	}
	name, err := s.templates.Save(stringParam(params, "name", ""), data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	type saveResult struct {
		OK   bool   `yaml:"ok"`
		Name string `yaml:"name"`
	}
	return mcp.NewToolResultText(toYAML(saveResult{OK: true, Name: name})), nil
}

func (s *Server) handleTemplateDelete(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.templates.Delete(stringParam(request.GetArguments(), "name", "")); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("ok: true\n"), nil
}

// Parameter extraction helpers for MCP argument maps.

func stringParam(params map[string]interface{}, key, defaultVal string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return defaultVal
}

func floatParam(params map[string]interface{}, key string) (float64, bool) {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		}
	}
	return 0, false
}
