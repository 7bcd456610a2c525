package models

import "fmt"

// ActionKind is the provisioning intent.
type ActionKind int

const (
	Setup ActionKind = iota
	Teardown
)

func (k ActionKind) String() string {
	switch k {
	case Setup:
		return "setup"
	case Teardown:
		return "teardown"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// Action pairs an intent with the services it applies to.
type Action struct {
	Kind   ActionKind
	Target Target
}

// SetupOf builds a Setup action for target.
func SetupOf(target Target) Action {
	return Action{Kind: Setup, Target: target}
}

// TeardownOf builds a Teardown action for target.
func TeardownOf(target Target) Action {
	return Action{Kind: Teardown, Target: target}
}

func (a Action) String() string {
	return fmt.Sprintf("%s(%s)", a.Kind, a.Target)
}
