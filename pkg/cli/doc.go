/*
Package cli provides command-line utilities for the mediarc command.

Output Formatting:

Run reports and history listings render as human-readable text or as JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

Signal Handling:

For graceful cancellation on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	// Pass ctx to the engine; cancellation is honored at action boundaries.
*/
package cli
