/*
Package storage provides the shared key-value store access for the task core.

Store is the narrow contract the subsystem needs: string values with
TTLs, unordered string sets, multi-get, and TTL refresh. Operations
are atomic per key; nothing in the core relies on multi-key
transactions.

RedisStore implements the contract over a Redis-compatible server.
Tests run it against an in-process miniredis.
*/
package storage
