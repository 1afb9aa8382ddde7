package main

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"img2pdf/cmd"
)

const version = "0.1.0"

// notifySignals cancel the command context. SIGKILL cannot be caught.
var notifySignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	// pdfcpu only needs its in-memory defaults.
	api.DisableConfigDir()

	root := cmd.NewRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(notifySignals...),
	); err != nil {
		os.Exit(1)
	}
}
