package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/fleetjobs/internal/common"
)

func main() {
	common.LoadVersionFromFile()

	// Crash reports sit beside the log file
	if exe, err := os.Executable(); err == nil {
		common.InstallCrashHandler(filepath.Join(filepath.Dir(exe), "logs"))
	}
	defer common.RecoverWithCrashFile()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
