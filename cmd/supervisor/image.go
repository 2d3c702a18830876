// cmd/supervisor/image.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tamzrod/ulp-supervisor/internal/coproc"
	"github.com/tamzrod/ulp-supervisor/internal/image"
)

func newImageCmd() *cobra.Command {
	var reserved int

	cmd := &cobra.Command{
		Use:   "image [path]",
		Short: "Inspect a program image (embedded one when no path is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			img, err := image.Select(path, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "source:    %s\n", img.Source)
			fmt.Fprintf(out, "bytes:     %d (%d words)\n", len(img.Bytes), img.WordCount())
			fmt.Fprintf(out, "entry:     %d\n", img.Entry)

			h, err := image.ParseHeader(img.Bytes)
			if err != nil {
				return fmt.Errorf("header: %w", err)
			}
			fmt.Fprintf(out, "text:      %d @ %d\n", h.TextSize, h.TextOffset)
			fmt.Fprintf(out, "data:      %d\n", h.DataSize)
			fmt.Fprintf(out, "bss:       %d\n", h.BSSSize)
			fmt.Fprintf(out, "footprint: %d / %d\n", h.Footprint(), reserved)

			switch {
			case len(img.Bytes)%image.WordSize != 0:
				return coproc.ErrImageAlign
			case h.Footprint() > reserved:
				return coproc.ErrImageSize
			case int(img.Entry)*image.WordSize >= h.LoadSize():
				return coproc.ErrEntryRange
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
	cmd.Flags().IntVar(&reserved, "reserved", coproc.DefaultReserveBytes, "coprocessor memory reserved for the program, in bytes")
	return cmd
}
