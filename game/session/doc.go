// Package session keeps 2048 game sessions in memory and, optionally, in durable
// storage.
//
// Core Types:
//
// Manager owns the in-memory session map and implements service.SessionManager.
// SessionPersistence is the storage contract, with two implementations:
// FilePersistence writes one JSON document per session and SQLitePersistence
// keeps one row per session in a SQLite database.
//
// Session Identifiers:
//
// Sessions use short lowercase IDs. An empty ID on Create gets a random
// 4-character hex ID; collisions with memory or storage are retried.
// Lookups are case-insensitive.
//
// Persistence:
//
// Sessions are stored as their config ID plus a full engine snapshot. Loading
// resolves the config through the config manager, builds a fresh engine and
// restores the snapshot, so a pending win notice survives a restart.
//
// Usage:
//
//	store, err := session.NewSQLitePersistence("sessions.db", configs)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(store)
//
//	sess, err := manager.Create("", "classic", configs.GetDefault())
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Cleanup:
//
// CleanupExpiredSessions evicts idle sessions from memory only. Evicted sessions
// reload from storage on next access.
package session
