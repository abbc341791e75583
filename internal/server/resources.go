package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	guidelinesURI  = "webcheck://usage-guidelines"
	schemaIndexURI = "webcheck://schemas"
	schemaURIRoot  = schemaIndexURI + "/"
	schemaMIMEType = "application/schema+json"
)

// registeredTool remembers the argument schema a tool was registered with,
// so the schema resources always describe the tools actually served.
type registeredTool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	URI         string             `json:"uri"`
	schema      *jsonschema.Schema `json:"-"`
}

// addTool infers the input schema of In once, registers the tool with it
// and records it for the schema resources.
func addTool[In any](s *Server, t *mcp.Tool, h mcp.ToolHandlerFor[In, any]) {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		panic(fmt.Sprintf("schema of tool %s: %v", t.Name, err))
	}
	t.InputSchema = schema
	s.tools = append(s.tools, registeredTool{
		Name:        t.Name,
		Description: t.Description,
		URI:         schemaURIRoot + t.Name,
		schema:      schema,
	})
	mcp.AddTool(s.mcpServer, t, h)
}

func (s *Server) tool(name string) (registeredTool, bool) {
	for _, t := range s.tools {
		if t.Name == name {
			return t, true
		}
	}
	return registeredTool{}, false
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         guidelinesURI,
		Name:        "Usage Guidelines",
		Description: "How to use the webcheck tools and read their findings",
		MIMEType:    "text/markdown",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return contents(guidelinesURI, "text/markdown", s.systemPrompt), nil
	})

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         schemaIndexURI,
		Name:        "Tool Index",
		Description: "Every tool with its description and the URI of its argument schema",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		data, err := json.MarshalIndent(s.tools, "", "  ")
		if err != nil {
			return nil, err
		}
		return contents(schemaIndexURI, "application/json", string(data)), nil
	})

	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: schemaURIRoot + "{tool_name}",
		Name:        "Tool Schema",
		Description: "JSON schema for the named tool's arguments",
		MIMEType:    schemaMIMEType,
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		name := strings.TrimPrefix(req.Params.URI, schemaURIRoot)
		t, ok := s.tool(name)
		if !ok {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		data, err := json.MarshalIndent(t.schema, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode schema of %s: %w", name, err)
		}
		return contents(req.Params.URI, schemaMIMEType, string(data)), nil
	})
}

func contents(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mimeType, Text: text}},
	}
}
