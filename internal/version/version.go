// Package version хранит сведения о сборке, заполняемые через -ldflags.
package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Version возвращает семантическую версию сборки.
func Version() string { return version }

// String возвращает строку для логов запуска и флага --version.
func String() string {
	return fmt.Sprintf("orderhub %s (commit %s, built %s)", version, commit, date)
}
