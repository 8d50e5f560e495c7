// Command nvencoder-launch is the double-click entry point of the desktop
// application. It prepares the Python virtual environment next to the
// executable and runs the application inside it.
package main

import (
	"context"
	"os"

	"github.com/aretw0/nvencoder/internal/cli"
	"github.com/aretw0/nvencoder/internal/logging"
	"github.com/aretw0/nvencoder/pkg/launcher"
)

func main() {
	sigCtx := cli.NewSignalContext(context.Background())

	code := launcher.Main(sigCtx, launcher.MainOptions{
		Logger: logging.NewConsole(os.Stderr, logging.LevelSuccess),
		Pauser: launcher.NewPauser(os.Stdin, os.Stderr),
		Stderr: os.Stderr,
	})
	sigCtx.Cancel()
	os.Exit(code)
}
