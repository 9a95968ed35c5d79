package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Orchestrator Orchestrator
	Sessions     *Sessions
}

// NewMCPServer creates an MCP server exposing finsight's analysis
// operations as tools over stdio.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"finsight",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("finsight — financial document analysis: structured reports and follow-up questions over retrieved document evidence."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("analyze_document",
			mcp.WithDescription("Analyze a financial document into four structured sections: overview, financial highlights, key risks, and management commentary. Returns a document ID usable for follow-up questions."),
			mcp.WithString("text", mcp.Description("Plain text of the financial document"), mcp.Required()),
			mcp.WithString("company", mcp.Description("Company name the document is about"), mcp.Required()),
			mcp.WithString("mode", mcp.Description("Pipeline mode (coordinated or specialized-agent); omit for the default")),
		),
		mcpAnalyzeDocument(deps),
	)

	s.AddTool(
		mcp.NewTool("ask_question",
			mcp.WithDescription("Ask a free-form question about a previously analyzed document."),
			mcp.WithString("document_id", mcp.Description("Document ID returned by analyze_document"), mcp.Required()),
			mcp.WithString("question", mcp.Description("The question to answer"), mcp.Required()),
			mcp.WithString("mode", mcp.Description("Pipeline mode; omit for the default")),
		),
		mcpAskQuestion(deps),
	)

	s.AddTool(
		mcp.NewTool("list_modes",
			mcp.WithDescription("List the available generation pipeline modes and whether each is enabled."),
		),
		mcpListModes(deps),
	)

	return s
}

func mcpAnalyzeDocument(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}
		company, err := req.RequireString("company")
		if err != nil {
			return mcpError("company is required"), nil
		}
		mode := req.GetString("mode", "")

		result, err := deps.Orchestrator.GenerateReport(ctx, mode, text, company)
		if err != nil {
			return mcpError(fmt.Sprintf("analysis failed: %v", err)), nil
		}

		docID := uuid.New().String()
		deps.Sessions.Put(docID, Session{Index: result.Index, Company: company})

		b, err := json.Marshal(ReportResponse{DocumentID: docID, Result: result})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpAskQuestion(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		docID, err := req.RequireString("document_id")
		if err != nil {
			return mcpError("document_id is required"), nil
		}
		question, err := req.RequireString("question")
		if err != nil {
			return mcpError("question is required"), nil
		}
		mode := req.GetString("mode", "")

		session, ok := deps.Sessions.Get(docID)
		if !ok {
			return mcpError(fmt.Sprintf("unknown document %q; run analyze_document first", docID)), nil
		}

		result, err := deps.Orchestrator.AnswerQuestion(ctx, mode, session.Index, question, session.Company)
		if err != nil {
			return mcpError(fmt.Sprintf("question failed: %v", err)), nil
		}

		b, err := json.Marshal(result)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpListModes(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		b, err := json.Marshal(deps.Orchestrator.Modes())
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal modes: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
