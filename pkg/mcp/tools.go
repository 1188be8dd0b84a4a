package mcp

import "github.com/mark3labs/mcp-go/mcp"

// manageWorkspaceTool defines manage_workspace's input schema .
func manageWorkspaceTool() mcp.Tool {
	return mcp.NewTool("manage_workspace",
		mcp.WithDescription("Register, list, clean, and inspect indexed workspaces"),
		mcp.WithString("operation", mcp.Required(),
			mcp.Description("index|add|remove|list|clean|refresh|stats|set_ttl|set_limit|health|recent"),
			mcp.Enum("index", "add", "remove", "list", "clean", "refresh", "stats", "set_ttl", "set_limit", "health", "recent")),
		mcp.WithString("path", mcp.Description("filesystem path for add/index")),
		mcp.WithString("workspace_id", mcp.Description("target workspace id, for remove/refresh")),
		mcp.WithBoolean("force", mcp.Description("force a full reindex instead of incremental")),
		mcp.WithNumber("ttl_seconds", mcp.Description("new default TTL in seconds, for set_ttl")),
		mcp.WithNumber("max_total_size_bytes", mcp.Description("new total size budget, for set_limit")),
	)
}

// fastSearchTool defines fast_search's input schema.
func fastSearchTool() mcp.Tool {
	return mcp.NewTool("fast_search",
		mcp.WithDescription("Search symbols or file content in a workspace"),
		mcp.WithString("query", mcp.Required()),
		mcp.WithString("search_method", mcp.Enum("exact", "fuzzy", "regex", "semantic", "text"), mcp.DefaultString("exact")),
		mcp.WithNumber("limit", mcp.DefaultNumber(50)),
		mcp.WithString("language", mcp.Description("restrict to one language")),
		mcp.WithString("file_pattern", mcp.Description("glob, e.g. src/**/*.ts")),
		mcp.WithString("workspace", mcp.DefaultString("primary")),
		mcp.WithString("search_target", mcp.Enum("definitions", "content"), mcp.DefaultString("definitions")),
		mcp.WithString("output", mcp.Enum("symbols", "lines"), mcp.DefaultString("symbols")),
		mcp.WithNumber("context_lines"),
	)
}

// fastGotoTool defines fast_goto's input schema.
func fastGotoTool() mcp.Tool {
	return mcp.NewTool("fast_goto",
		mcp.WithDescription("Resolve a symbol name to its ranked definitions"),
		mcp.WithString("symbol", mcp.Required()),
		mcp.WithString("workspace", mcp.DefaultString("primary")),
		mcp.WithString("context_file", mcp.Description("boosts definitions in/near this file")),
		mcp.WithString("kind", mcp.Description("restrict to one symbol kind")),
		mcp.WithString("file_pattern"),
		mcp.WithNumber("limit", mcp.DefaultNumber(10)),
	)
}

// fastRefsTool defines fast_refs's input schema.
func fastRefsTool() mcp.Tool {
	return mcp.NewTool("fast_refs",
		mcp.WithDescription("Find every reference to a symbol"),
		mcp.WithString("symbol", mcp.Required()),
		mcp.WithString("workspace", mcp.DefaultString("primary")),
		mcp.WithBoolean("include_definitions", mcp.Description("also return the symbol's definitions")),
	)
}

// fastExploreTool defines fast_explore's input schema. Fields are a union
// across the five exploration modes; unused fields for a given mode are
// ignored.
func fastExploreTool() mcp.Tool {
	return mcp.NewTool("fast_explore",
		mcp.WithDescription("Cross-cutting code exploration: dependencies, type intelligence, cross-language data flow, related tests, similar symbols"),
		mcp.WithString("mode", mcp.Required(), mcp.Enum("logic", "similar", "tests", "dependencies", "types")),
		mcp.WithString("workspace", mcp.DefaultString("primary")),
		mcp.WithString("symbol", mcp.Description("required for logic/similar/tests/dependencies")),
		mcp.WithString("type_name", mcp.Description("required for types")),
		mcp.WithString("exploration_type", mcp.Enum("implementations", "hierarchy", "returns", "parameters", "all"), mcp.DefaultString("all")),
		mcp.WithNumber("max_depth", mcp.DefaultNumber(5)),
		mcp.WithNumber("limit", mcp.DefaultNumber(20)),
	)
}

// getSymbolsTool defines get_symbols's input schema.
func getSymbolsTool() mcp.Tool {
	return mcp.NewTool("get_symbols",
		mcp.WithDescription("Outline a file's symbols, optionally with extracted code bodies"),
		mcp.WithString("file_path", mcp.Required()),
		mcp.WithString("workspace", mcp.DefaultString("primary")),
		mcp.WithNumber("max_depth"),
		mcp.WithString("target", mcp.Description("restrict to this symbol and its descendants")),
		mcp.WithNumber("limit"),
		mcp.WithString("mode", mcp.Enum("structure", "full"), mcp.DefaultString("structure")),
	)
}
