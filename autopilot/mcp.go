package autopilot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/veltaire/plume/kit"
)

// RegisterMCP registers all automation tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerEnable(srv)
	s.registerDisable(srv)
	s.registerGetSchedule(srv)
	s.registerCheck(srv)
	s.registerRun(srv)
	s.registerSummary(srv)
	s.registerKeywords(srv)
	s.registerRefreshKeywords(srv)
	s.registerAngleStats(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func tenantSchema() map[string]any {
	return inputSchema(map[string]any{
		"tenant": map[string]any{"type": "string", "description": "Tenant (store) ID"},
	}, []string{"tenant"})
}

type tenantReq struct {
	Tenant string `json:"tenant"`
}

func decodeJSON[T any](r *mcp.CallToolRequest) (any, error) {
	var p T
	if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) registerEnable(srv *mcp.Server) {
	type req struct {
		Tenant    string `json:"tenant"`
		Frequency string `json:"frequency"`
		Timezone  string `json:"timezone"`
		Day       *int   `json:"target_day"`
		Hour      *int   `json:"target_hour"`
	}

	tool := &mcp.Tool{
		Name:        "plume_enable_automation",
		Description: "Enable (or re-arm) weekly automated blog generation for a tenant",
		InputSchema: inputSchema(map[string]any{
			"tenant":      map[string]any{"type": "string", "description": "Tenant (store) ID"},
			"frequency":   map[string]any{"type": "string", "description": "daily, weekly or monthly"},
			"timezone":    map[string]any{"type": "string", "description": "IANA reference timezone"},
			"target_day":  map[string]any{"type": "integer", "description": "Day of week, 0=Sunday"},
			"target_hour": map[string]any{"type": "integer", "description": "Hour 0-23 in the reference timezone"},
		}, []string{"tenant"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		params := EnableParams{
			Frequency: Frequency(p.Frequency),
			Timezone:  p.Timezone,
		}
		if p.Day != nil {
			day := time.Weekday(*p.Day)
			params.TargetDay = &day
		}
		params.TargetHour = p.Hour
		return s.EnableAutomation(ctx, p.Tenant, params)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeJSON[req])
}

func (s *Service) registerDisable(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "plume_disable_automation",
		Description: "Disable automated blog generation for a tenant (schedule row retained)",
		InputSchema: tenantSchema(),
	}
	endpoint := func(ctx context.Context, r any) (any, error) {
		return s.DisableAutomation(ctx, r.(*tenantReq).Tenant)
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeJSON[tenantReq])
}

func (s *Service) registerGetSchedule(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "plume_get_schedule",
		Description: "Get a tenant's automation schedule and status",
		InputSchema: tenantSchema(),
	}
	endpoint := func(ctx context.Context, r any) (any, error) {
		return s.GetSchedule(ctx, r.(*tenantReq).Tenant)
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeJSON[tenantReq])
}

func (s *Service) registerCheck(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "plume_check_automation",
		Description: "Evaluate whether unattended generation should fire now (no side effects)",
		InputSchema: tenantSchema(),
	}
	endpoint := func(ctx context.Context, r any) (any, error) {
		d, err := s.CheckAutomation(ctx, r.(*tenantReq).Tenant)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeJSON[tenantReq])
}

func (s *Service) registerRun(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "plume_run_automation",
		Description: "Run one automated generation for a tenant: prompt, generate, publish, record",
		InputSchema: tenantSchema(),
	}
	endpoint := func(ctx context.Context, r any) (any, error) {
		return s.GenerateAutomatedBlog(ctx, r.(*tenantReq).Tenant)
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeJSON[tenantReq])
}

func (s *Service) registerSummary(srv *mcp.Server) {
	type req struct{}
	tool := &mcp.Tool{
		Name:        "plume_automation_summary",
		Description: "Fleet-wide automation summary: enabled, generating, errored, due",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	endpoint := func(ctx context.Context, r any) (any, error) {
		return s.GetSummary(ctx)
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeJSON[req])
}

func (s *Service) registerKeywords(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "plume_get_keywords",
		Description: "Get a tenant's aggregated keyword corpus",
		InputSchema: tenantSchema(),
	}
	endpoint := func(ctx context.Context, r any) (any, error) {
		return s.keywords.Keywords(ctx, r.(*tenantReq).Tenant)
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeJSON[tenantReq])
}

func (s *Service) registerRefreshKeywords(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "plume_refresh_keywords",
		Description: "Invalidate and recompute a tenant's keyword corpus",
		InputSchema: tenantSchema(),
	}
	endpoint := func(ctx context.Context, r any) (any, error) {
		return s.keywords.Refresh(ctx, r.(*tenantReq).Tenant)
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeJSON[tenantReq])
}

func (s *Service) registerAngleStats(srv *mcp.Server) {
	type req struct {
		Tenant   string `json:"tenant"`
		DaysBack int    `json:"days_back"`
	}
	tool := &mcp.Tool{
		Name:        "plume_angle_stats",
		Description: "Per-angle usage counts and the recommended next content angle",
		InputSchema: inputSchema(map[string]any{
			"tenant":    map[string]any{"type": "string", "description": "Tenant (store) ID"},
			"days_back": map[string]any{"type": "integer", "description": "Lookback window in days (default 30)"},
		}, []string{"tenant"}),
	}
	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return s.topics.AngleStats(ctx, p.Tenant, p.DaysBack)
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeJSON[req])
}
