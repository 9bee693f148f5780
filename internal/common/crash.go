package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// CrashLogDir is the directory where crash reports are written
var CrashLogDir = "./logs"

// InstallCrashHandler sets the crash report directory. The directory is
// created when a report is written.
func InstallCrashHandler(logDir string) {
	if logDir != "" {
		CrashLogDir = logDir
	}
}

// FormatCrashReport renders a panic value and stack trace with version and runtime details
func FormatCrashReport(panicVal interface{}, stackTrace string, at time.Time) string {
	var b strings.Builder

	b.WriteString("=== FLEETJOBS CRASH REPORT ===\n")
	fmt.Fprintf(&b, "Time: %s\n", at.Format(time.RFC3339))
	fmt.Fprintf(&b, "Version: %s\n\n", GetFullVersion())

	b.WriteString("=== PANIC VALUE ===\n")
	fmt.Fprintf(&b, "%v\n\n", panicVal)

	b.WriteString("=== STACK TRACE ===\n")
	b.WriteString(stackTrace)
	b.WriteString("\n")

	b.WriteString("=== SYSTEM INFO ===\n")
	fmt.Fprintf(&b, "GOOS: %s\n", runtime.GOOS)
	fmt.Fprintf(&b, "GOARCH: %s\n", runtime.GOARCH)
	fmt.Fprintf(&b, "Go: %s\n", runtime.Version())

	b.WriteString("=== END CRASH REPORT ===\n")
	return b.String()
}

// WriteCrashFile writes a crash report to CrashLogDir and echoes a summary to stderr.
// Returns the path of the report, or "" when it could not be written.
func WriteCrashFile(panicVal interface{}, stackTrace string) string {
	now := time.Now()
	report := FormatCrashReport(panicVal, stackTrace, now)
	crashPath := filepath.Join(CrashLogDir, fmt.Sprintf("crash-%s.log", now.Format("2006-01-02T15-04-05")))

	if err := os.MkdirAll(CrashLogDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "CRASH: Failed to create log directory: %v\n", err)
	}
	if err := os.WriteFile(crashPath, []byte(report), 0644); err != nil {
		// Last resort: write to stderr
		fmt.Fprintf(os.Stderr, "CRASH: Failed to write crash file: %v\n", err)
		io.WriteString(os.Stderr, report)
		return ""
	}

	fmt.Fprintf(os.Stderr, "\n!!! FATAL CRASH - Report saved to: %s !!!\n", crashPath)
	fmt.Fprintf(os.Stderr, "Panic: %v\n", panicVal)
	return crashPath
}

// GetStackTrace returns the current goroutine's stack trace
func GetStackTrace() string {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// RecoverWithCrashFile is a helper for deferred panic recovery that writes a crash file.
// Usage: defer common.RecoverWithCrashFile()
func RecoverWithCrashFile() {
	if r := recover(); r != nil {
		WriteCrashFile(r, GetStackTrace())
		os.Exit(1)
	}
}
