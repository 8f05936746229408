// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters): the sync coordinator keeps the
// index aligned with the vault, the query service answers similarity
// searches, and the settings service manages configuration.
//
// Services are pure Go with no CGO or external dependencies.
package services
