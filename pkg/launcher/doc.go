/*
Package launcher bootstraps a Python virtual environment next to an
application and starts its entry script.

A run is strictly sequential:

 1. EnsureEnvironment creates the environment unless its marker already exists.
 2. Activate computes the activated process environment and confirms it.
 3. SyncDependencies installs the dependency manifest when one is present.
 4. RunEntry starts the entry point and waits for it.

The first failing step stops the run; nothing is retried. Main wraps Run for
executables: it maps failures to exit code 1 and waits for the operator to
acknowledge the error when attached to a terminal.

Typical usage:

	dir, err := launcher.ResolveDir()
	if err != nil {
		return err
	}
	l, err := launcher.New(dir)
	if err != nil {
		return err
	}
	report, err := l.Run(ctx)
*/
package launcher
