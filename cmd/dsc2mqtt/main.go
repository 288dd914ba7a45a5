package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	cmd := &cobra.Command{
		Use:          "dsc2mqtt",
		Short:        "Bridge a DSC PowerSeries panel to MQTT",
		SilenceUsage: true,
	}

	cmd.AddCommand(runCommand())
	cmd.AddCommand(&cobra.Command{
		Use:   "encode CODE [DATA]",
		Short: "Print the framed line for a command",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  encode,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "decode LINE",
		Short: "Decode a line received from the panel",
		Args:  cobra.ExactArgs(1),
		RunE:  decode,
	})

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
