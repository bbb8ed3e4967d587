// Package api provides the HTTP REST API for the 2048 game server.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({"config_id": "small"}, optional)
//   - GET /api/sessions - List sessions (?sort=accessed|created|score&order=asc|desc&limit=N)
//   - GET /api/sessions/leaderboard - Sessions ranked by best score (?config=classic)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current board
//   - POST /api/sessions/{id}/move - {"direction": "left", "new_game": false}
//   - POST /api/sessions/{id}/bulk-move - {"moves": ["up", "left"], "new_game": false}
//   - POST /api/sessions/{id}/new-game - Start over, keeping the best score
//   - POST /api/sessions/{id}/continue - Keep playing after reaching the win tile
//   - GET /api/sessions/{id}/history - Paginated moves (?page=&limit=&order=)
//
// Configuration:
//   - GET /api/configs - List available configurations
//   - POST /api/configs - Save a configuration
//   - GET /api/configs/{name} - Get one configuration
//
// Other:
//   - GET /health
//   - GET /ws?session={id} - WebSocket upgrade
//
// Error Handling:
//
// Errors are returned as {"error": "message"}. Invalid directions and configs map
// to 400, unknown sessions and configs to 404, continuing a game that has not
// been won to 409, anything else to 500.
//
// Bulk Move Responses:
//
// requested_moves, moves_executed, moves_changed, truncated and limit describe
// how much of the request ran. A bulk move stops early when the board is stuck
// (stop_reason_code "game_over") or right after the win tile first appears
// ("victory"); stopped_on_move is the 1-based index of the first move not made.
// steps holds one move outcome per executed move.
package api
