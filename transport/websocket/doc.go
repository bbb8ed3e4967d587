// Package websocket pushes live 2048 board updates to browsers and accepts moves
// from them.
//
// Architecture:
//
// A central Hub owns the registry of connections, grouped by session. Only the
// Run goroutine touches the registry; broadcasts, registrations and per-client
// replies all arrive over channels. Each connection has a read pump and a write
// pump goroutine.
//
// Message Protocol:
//
// Outgoing messages are JSON:
//
//	{"session_id":"ab12","event":"state_update","game_state":{...}}
//	{"session_id":"ab12","event":"error","error":"..."}
//
// Incoming commands:
//
//	{"direction":"left"}
//	{"action":"move","direction":"up","new_game":false}
//	{"action":"new_game"}
//	{"action":"continue"}
//
// A successful command broadcasts the new state to every client of the session.
// A failed one is answered only to the sender.
//
// Usage:
//
//	hub := websocket.NewHub(gameService)
//	go hub.Run(ctx)
//
//	// in an HTTP handler, after checking the session exists
//	hub.ServeWS(w, r, sessionID, state)
package websocket
