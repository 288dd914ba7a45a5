package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daemonp/dsc2mqtt/internal/dsc"
)

func encode(cmd *cobra.Command, args []string) error {
	code := args[0]
	if len(code) != 3 {
		return fmt.Errorf("code must be three digits, got %q", code)
	}
	if _, err := strconv.Atoi(code); err != nil {
		return fmt.Errorf("code must be three digits, got %q", code)
	}

	var data string
	if len(args) > 1 {
		data = args[1]
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%q\n", dsc.Encode(dsc.Code(code), data))
	return nil
}

func decode(cmd *cobra.Command, args []string) error {
	msg, err := dsc.Decode(strings.TrimSpace(args[0]))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "code:        %s (%s)\n", string(msg.Code), msg.Name)
	fmt.Fprintf(out, "data:        %q\n", msg.Data)
	fmt.Fprintf(out, "checksum:    %s (ok=%t)\n", msg.Checksum, msg.ChecksumOK)
	fmt.Fprintf(out, "description: %s\n", msg.Description)
	if msg.Partition > 0 {
		fmt.Fprintf(out, "partition:   %d\n", msg.Partition)
	}
	if msg.Zone > 0 {
		fmt.Fprintf(out, "zone:        %d\n", msg.Zone)
	}
	return nil
}
