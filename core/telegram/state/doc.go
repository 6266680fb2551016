// Package state keeps the per-chat pending conversation step between updates.
// Sessions are keyed by chat id; backends are in-memory or Redis.
package state
