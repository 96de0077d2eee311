// Package ports defines the interfaces (ports) that connect the supervisor
// core to the outside world.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and infrastructure. They define what the
// supervisor needs from external systems without specifying how those needs
// are fulfilled.
//
// # Port Interfaces
//
//   - [Container]: The managed-component runtime being supervised
//   - [Lock]: Exclusive claim over a shared resource for active/standby election
//   - [Logger]: Structured logging abstraction
//
// # Usage
//
// The application layer (internal/app, pkg/supervisor) depends only on these
// interfaces. Infrastructure adapters (internal/lock, internal/adapters)
// implement them with concrete backends (flock files, child processes, zerolog).
//
// This separation enables:
//   - Testing election and shutdown logic with scripted mocks
//   - Swapping lock backends or container runtimes without touching the core
//   - Clear boundaries and dependency direction
package ports
