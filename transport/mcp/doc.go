// Package mcp exposes the 2048 game to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a request to the REST API
// and the JSON reply is rendered as text, with the board drawn by
// engine.FormatGrid.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state, move, bulk_move, new_game, continue_game, move_history
//   - list_configs
//   - game_instructions, describe_cell
//
// move and bulk_move take an "intent" argument in which the agent states what it
// is trying to do. It is logged at debug level and otherwise ignored.
//
// Transport Modes:
//
//	// stdio, for local MCP clients
//	client := mcp.NewClient("http://127.0.0.1:8080")
//	server.ServeStdio(client.GetMCPServer())
//
//	// JSON-RPC over HTTP POST
//	router.Handle("/mcp", client.HTTPHandler())
package mcp
