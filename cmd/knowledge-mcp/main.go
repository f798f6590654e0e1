// Command knowledge-mcp exposes the ToolHost's retrieval and portal tools
// over the Model Context Protocol via stdio, for use by an agent client.
package main

import (
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/uit-ai/knowledge-core/internal/app"
	"github.com/uit-ai/knowledge-core/internal/common"
	"github.com/uit-ai/knowledge-core/internal/toolhost"
)

func main() {
	var configFiles []string
	if path := os.Getenv("KNOWLEDGE_CORE_CONFIG"); path != "" {
		configFiles = append(configFiles, path)
	}

	a, err := app.New(configFiles)
	if err != nil {
		os.Stderr.WriteString("failed to initialize application: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer a.Close()

	host := toolhost.New(a.Config.Retrieval.ToolCallTimeout, a.Logger)
	toolhost.RegisterRetrievalTools(host, a.Router, a.Retriever)
	toolhost.RegisterPortalTools(host, a.Scraper)

	mcpServer := server.NewMCPServer(
		"knowledge-core",
		common.Version,
		server.WithToolCapabilities(true),
	)

	registerRetrievalTools(mcpServer, host)
	registerPortalTools(mcpServer, host)

	if err := server.ServeStdio(mcpServer); err != nil {
		a.Logger.Fatal().Err(err).Msg("mcp server failed")
	}
}
