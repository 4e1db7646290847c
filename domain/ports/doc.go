// Package ports defines the collaborators the bridge talks to: the host
// content engine, the OS permission subsystem, the file provider and grant
// persistence. Infrastructure adapters implement these interfaces and tests
// substitute fakes.
package ports
