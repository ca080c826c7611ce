// ABOUTME: Version information for wavetone
// ABOUTME: Product, manufacturer and version strings shown in logs and the TUI
package version

import "fmt"

const (
	// Version is the release version
	Version = "0.1.0"

	// Product is the product name
	Product = "Wavetone"

	// Manufacturer is the publisher name
	Manufacturer = "Resonate"
)

// String returns the banner printed at startup, e.g. "Wavetone 0.1.0 (Resonate)"
func String() string {
	return fmt.Sprintf("%s %s (%s)", Product, Version, Manufacturer)
}
