//go:build debug

package debug

import "fmt"

// Debug reports whether the library was built with the debug tag.
const Debug = true

func init() {
	fmt.Println("WARNING -- DEBUG FLAG IS ON")
}
