package signup

import "fmt"

// Step is the active stage of the sign-up flow.
type Step int

const (
	StepPhone Step = iota
	StepCode
	StepProfile
)

func (s Step) String() string {
	switch s {
	case StepPhone:
		return "phone"
	case StepCode:
		return "code"
	case StepProfile:
		return "profile"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}
