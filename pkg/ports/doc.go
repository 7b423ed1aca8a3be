/*
Package ports defines the driven ports (interfaces) of Arbor.

These interfaces decouple the state machine from external implementations,
allowing persisted state to live in memory, on disk or in Redis.

# Key Interfaces

  - Storage: Persists one JSON snapshot per namespace key.
*/
package ports
