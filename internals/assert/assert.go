package assert

import "fmt"

// Assert panics when the condition does not hold. Used for startup-time
// wiring that has no sensible recovery path.
func Assert(condition bool, msg string, args ...any) {
	if !condition {
		panic(fmt.Sprint(append([]any{msg}, args...)...))
	}
}

func AssertNil(value any, msg string, args ...any) {
	Assert(value == nil, msg, args...)
}
