/*
Package cli provides helpers shared by the gemini-relay subcommands: output
formatting, error to exit code mapping and signal handling.

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, info); err != nil {
		return err
	}

	ctx, stop := cli.SignalContext(context.Background(), func(os.Signal) { os.Exit(1) })
	defer stop()
*/
package cli
