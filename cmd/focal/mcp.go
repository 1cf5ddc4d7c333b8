package main

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/focal/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes focal's call graph
queries and slicer as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "focal": {
        "command": "focal",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - slice_focal_method    Reduce classes to a focal method and its dependencies
  - get_callers           Methods that call a method
  - get_callees           Methods a method calls
  - get_class_call_graph  Call edges leaving a class
  - get_call_graph        Every call edge in a feed
  - find_recursion        Recursive and mutually recursive methods`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the MCP registry manifest (server.json)",
				Action: runMCPManifest,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc, err := newService(c, loaded.Config)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(c.Context)
	defer stop()

	server := mcpserver.NewServer(version,
		mcpserver.WithService(svc),
		mcpserver.WithLogger(slog.Default()))
	return server.Run(ctx)
}

func runMCPManifest(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}
