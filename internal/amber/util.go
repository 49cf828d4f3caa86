package amber

import "fmt"

// debugf prints debug messages when Debug is true
func debugf(format string, args ...any) {
	if Debug {
		fmt.Printf(format, args...)
	}
}

// step prints an arrow-prefixed progress line.
func step(format string, args ...any) {
	colArrow.Print("-> ")
	colSuccess.Printf(format+"\n", args...)
}
