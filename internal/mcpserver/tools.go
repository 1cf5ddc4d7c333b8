package mcpserver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/focal/internal/fileproc"
	"github.com/panbanda/focal/internal/output"
	"github.com/panbanda/focal/internal/service/analysis"
	"github.com/panbanda/focal/pkg/models"
)

// FormatInput selects how a tool renders its result.
type FormatInput struct {
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// SliceInput is the input of slice_focal_method.
type SliceInput struct {
	FormatInput
	Paths  []string `json:"paths" jsonschema:"Java files or directories to slice."`
	Method string   `json:"method" jsonschema:"Focal method: a bare name such as process, a feed signature such as process(Order), or a full declaration."`
	Ref    string   `json:"ref,omitempty" jsonschema:"Git revision to read sources at. Defaults to the working tree."`
	Repo   string   `json:"repo,omitempty" jsonschema:"Directory inside the repository used with ref. Defaults to the current directory."`
}

// FeedInput names the dependency edge feed a call graph is built from.
type FeedInput struct {
	FormatInput
	Feed string `json:"feed" jsonschema:"Path to the analyzer's dependency edge feed (JSON or YAML)."`
}

// MethodInput identifies one method of the call graph.
type MethodInput struct {
	FeedInput
	Class     string `json:"class" jsonschema:"Fully qualified class name, e.g. com.acme.OrderService."`
	Signature string `json:"signature" jsonschema:"Method signature as it appears in the feed, e.g. process(Order)."`
}

// ClassInput scopes a call graph query to one class.
type ClassInput struct {
	FeedInput
	Class  string `json:"class" jsonschema:"Fully qualified class name."`
	Method string `json:"method,omitempty" jsonschema:"Restrict to the outgoing calls of this method signature."`
}

type methodRef struct {
	Class       string `json:"class" toon:"class"`
	Signature   string `json:"signature" toon:"signature"`
	Declaration string `json:"declaration,omitempty" toon:"declaration,omitempty"`
}

type callSite struct {
	Class        string `json:"class" toon:"class"`
	Signature    string `json:"signature" toon:"signature"`
	CallingLines []int  `json:"calling_lines" toon:"calling_lines"`
}

type callersOutput struct {
	Target  *methodRef `json:"target" toon:"target"`
	Callers []callSite `json:"callers" toon:"callers"`
}

type calleesOutput struct {
	Source  *methodRef `json:"source" toon:"source"`
	Callees []callSite `json:"callees" toon:"callees"`
}

type classEdge struct {
	Source methodRef `json:"source" toon:"source"`
	Target methodRef `json:"target" toon:"target"`
}

type cyclesOutput struct {
	Cyclic        bool       `json:"cyclic" toon:"cyclic"`
	Components    [][]string `json:"components" toon:"components"`
	SelfRecursive []string   `json:"self_recursive" toon:"self_recursive"`
}

type sliceOutput struct {
	Slices []analysis.FileSlice `json:"slices" toon:"slices"`
	Errors []string             `json:"errors,omitempty" toon:"errors,omitempty"`
}

func ref(m models.MethodDetail) methodRef {
	return methodRef{Class: m.Class, Signature: m.Signature(), Declaration: m.DeclarationText()}
}

func site(m models.MethodDetail, lines []int) callSite {
	if lines == nil {
		lines = []int{}
	}
	return callSite{Class: m.Class, Signature: m.Signature(), CallingLines: lines}
}

func getFormat(input FormatInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	switch format {
	case output.FormatJSON:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	case output.FormatMarkdown:
		out, err := output.MarshalTOON(data)
		if err != nil {
			return "", err
		}
		return "```\n" + out + "\n```", nil
	default:
		return output.MarshalTOON(data)
	}
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func (s *Server) handleSlice(ctx context.Context, req *mcp.CallToolRequest, input SliceInput) (*mcp.CallToolResult, any, error) {
	if len(input.Paths) == 0 {
		return toolError("paths is required")
	}

	slices, err := s.service.Slice(ctx, input.Paths, analysis.SliceOptions{
		Method: input.Method,
		Ref:    input.Ref,
		Repo:   input.Repo,
	})
	out := sliceOutput{Slices: slices}
	if err != nil {
		var perrs *fileproc.ProcessingErrors
		if !errors.As(err, &perrs) || len(slices) == 0 {
			return toolError(err.Error())
		}
		for _, pe := range perrs.Errors {
			out.Errors = append(out.Errors, pe.Error())
		}
	}
	return toolResult(out, getFormat(input.FormatInput))
}

func (s *Server) handleCallers(ctx context.Context, req *mcp.CallToolRequest, input MethodInput) (*mcp.CallToolResult, any, error) {
	g, err := s.service.LoadGraph(ctx, input.Feed)
	if err != nil {
		return toolError(err.Error())
	}

	res := g.Callers(input.Class, input.Signature)
	out := callersOutput{Callers: []callSite{}}
	if res.TargetMethod != nil {
		target := ref(*res.TargetMethod)
		out.Target = &target
	}
	for _, c := range res.CallerDetails {
		out.Callers = append(out.Callers, site(c.CallerMethod, c.CallingLines))
	}
	return toolResult(out, getFormat(input.FormatInput))
}

func (s *Server) handleCallees(ctx context.Context, req *mcp.CallToolRequest, input MethodInput) (*mcp.CallToolResult, any, error) {
	g, err := s.service.LoadGraph(ctx, input.Feed)
	if err != nil {
		return toolError(err.Error())
	}

	res := g.Callees(input.Class, input.Signature)
	out := calleesOutput{Callees: []callSite{}}
	if res.SourceMethod != nil {
		source := ref(*res.SourceMethod)
		out.Source = &source
	}
	for _, c := range res.CalleeDetails {
		out.Callees = append(out.Callees, site(c.CalleeMethod, c.CallingLines))
	}
	return toolResult(out, getFormat(input.FormatInput))
}

func (s *Server) handleClassCallGraph(ctx context.Context, req *mcp.CallToolRequest, input ClassInput) (*mcp.CallToolResult, any, error) {
	if input.Class == "" {
		return toolError("class is required")
	}
	g, err := s.service.LoadGraph(ctx, input.Feed)
	if err != nil {
		return toolError(err.Error())
	}

	edges := g.ClassCallGraph(input.Class, input.Method)
	out := make([]classEdge, len(edges))
	for i, e := range edges {
		out[i] = classEdge{Source: ref(e.Source), Target: ref(e.Target)}
	}
	return toolResult(out, getFormat(input.FormatInput))
}

func (s *Server) handleCallGraph(ctx context.Context, req *mcp.CallToolRequest, input FeedInput) (*mcp.CallToolResult, any, error) {
	g, err := s.service.LoadGraph(ctx, input.Feed)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(g.Records(), getFormat(input.FormatInput))
}

func (s *Server) handleCycles(ctx context.Context, req *mcp.CallToolRequest, input FeedInput) (*mcp.CallToolResult, any, error) {
	g, err := s.service.LoadGraph(ctx, input.Feed)
	if err != nil {
		return toolError(err.Error())
	}

	report := g.Cycles()
	out := cyclesOutput{
		Cyclic:        len(report.Components) > 0 || len(report.SelfRecursive) > 0,
		Components:    make([][]string, len(report.Components)),
		SelfRecursive: make([]string, len(report.SelfRecursive)),
	}
	for i, comp := range report.Components {
		out.Components[i] = make([]string, len(comp))
		for j, k := range comp {
			out.Components[i][j] = k.String()
		}
	}
	for i, k := range report.SelfRecursive {
		out.SelfRecursive[i] = k.String()
	}
	return toolResult(out, getFormat(input.FormatInput))
}
