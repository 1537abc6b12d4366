package mc

// Action is what a hook asks of the engine after a move. Levels combine
// by taking the strongest across all hooks.
type Action int

const (
	ActionNone Action = iota
	// ActionLog triggers Log on every registered hook.
	ActionLog
	// ActionSave triggers the engine's save function.
	ActionSave
	// ActionExit marks the run done; the loop driving MoveOnce stops.
	ActionExit
)

// Hook observes the sampler after each completed move. Run is called
// every move and decides its own cadence; it must not mutate sampler
// state. Log is called on all hooks whenever any hook returned ActionLog
// or stronger.
type Hook interface {
	Run(s *Sampler, sys System) (Action, error)
	Log(s *Sampler, sys System)
}

// GammaObserver receives gamma-change events from the weight-update
// method. Hooks implementing it are discovered when added.
type GammaObserver interface {
	GammaChanged(moves uint64, gamma float64)
}
