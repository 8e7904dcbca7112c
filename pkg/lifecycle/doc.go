// Package lifecycle owns the single active survey instance. The Controller
// accepts definitions, skips identical ones, and otherwise runs the
// preserve, rebuild, restore cycle so answers outlive the instance that
// collected them. Field mutators change one question of the live survey
// without a rebuild.
//
// The controller is meant to be driven from one goroutine (the bridge run
// loop). It holds no locks, and every operation may be re-entered from the
// callbacks and event handlers it triggers.
package lifecycle
