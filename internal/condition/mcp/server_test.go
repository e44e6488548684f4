package mcp

import (
	"context"
	"sort"
	"testing"

	"github.com/2beens/teamcondition/internal/condition/catalog"
	"github.com/2beens/teamcondition/internal/condition/dashboard"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func connect(t *testing.T, svc conditionService) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serverSession, err := NewServer(svc).Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestServer_ListTools(t *testing.T) {
	session := connect(t, &mockConditionService{})

	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	want := []string{"get_condition_report", "get_selection_options", "list_metrics"}
	if len(names) != len(want) {
		t.Fatalf("tools = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("tools = %v, want %v", names, want)
		}
	}
}

func TestServer_CallConditionReport(t *testing.T) {
	svc := &mockConditionService{
		metrics: []catalog.Metric{{Label: "CK", Field: "ck", Kind: catalog.KindNumeric}},
		report:  &dashboard.Report{Title: "kyosera データ"},
	}
	session := connect(t, svc)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "get_condition_report",
		Arguments: map[string]any{
			"entities": []string{"A", "B"},
			"mode":     "categorical",
			"year":     2024,
			"metrics":  []string{"CK"},
		},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected IsError: %s", textOf(t, res))
	}
	if svc.gotSel.Mode != "categorical" || svc.gotSel.Year == nil || *svc.gotSel.Year != 2024 {
		t.Fatalf("selection passed = %+v", svc.gotSel)
	}
	if len(svc.gotSel.Entities) != 2 {
		t.Fatalf("entities passed = %v", svc.gotSel.Entities)
	}
}
