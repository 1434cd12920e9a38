package version

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// Populated at link time via -ldflags "-X gridwire/pkg/version.Revision=...".
var (
	Version   string = "0.3"
	Revision  string = ""
	BuildId   string = ""
	BuildTime string = ""
)

func OnelineVersionString() string {
	return Version + "." + Revision + "." + BuildId
}

func WriteVersionInfo(w io.Writer) {
	binName := filepath.Base(os.Args[0])
	fmt.Fprintf(w, "\ngridwire %s %s\n\n", binName, Version)

	if BuildId != "" {
		fmt.Fprintf(w, "  Build No. : %s\n", BuildId)
	}
	if Revision != "" {
		fmt.Fprintf(w, "  Git Commit: %s\n", Revision)
	}
	fmt.Fprintf(w, "  Go Version: %s\n  OS/Arch   : %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if BuildTime != "" {
		fmt.Fprintf(w, "  Built     : %s\n", BuildTime)
	}
	fmt.Fprintf(w, "\n")
}

func PrintVersionInfo() {
	WriteVersionInfo(os.Stdout)
}
