// Command pkgbuild-vercmp compares two plain "[epoch:]pkgver[-pkgrel]"
// version strings and prints -1, 0, or 1, mirroring the original
// pkgbuild-rs crate's examples/vercmp.rs.
package main

import (
	"fmt"
	"os"

	"github.com/arch-tools/pkgbuild/pkg/logger"
	"github.com/arch-tools/pkgbuild/pkg/pkgbuild"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <version1> <version2>\n", os.Args[0])
		os.Exit(2)
	}

	rawLeft, rawRight := os.Args[1], os.Args[2]
	left := pkgbuild.ParsePlainVersion(rawLeft)
	right := pkgbuild.ParsePlainVersion(rawRight)

	order := left.Compare(right)
	logger.Debug("comparing versions", "left", rawLeft, "right", rawRight, "order", int(order))

	fmt.Println(int(order))
}
