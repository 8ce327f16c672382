/*
Package cli holds the helpers shared by the fanc command: output
formatting, error types that map to exit codes, and signal handling.

Output Formatting:

Results are written in text, JSON, YAML or CSV:

	formatter, err := cli.NewFormatter(cli.FormatJSON)
	if err != nil {
		return err
	}
	return formatter.Write(os.Stdout, result)

Text output uses the value's Text method when it implements Texter. CSV
output requires a Table.

Signal Handling:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
*/
package cli
