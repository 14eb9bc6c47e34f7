package main

import (
	"context"
	"io"
	"os"

	"github.com/didi/scc/internal/tracer"

	"github.com/apache/thrift/lib/go/thrift"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newDumpCommand() *cobra.Command {
	var indent string
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Print events from a thrift output file as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "open dump file")
			}
			defer f.Close()

			w := tracer.NewConsoleWriter(cmd.OutOrStdout(), indent, true)
			_, err = dumpThrift(cmd.Context(), f, w)
			return err
		},
	}
	cmd.Flags().StringVar(&indent, "indent", "", "JSON indent, one line per event if empty")
	return cmd
}

// dumpThrift copies every event in r to w and returns how many were copied.
func dumpThrift(ctx context.Context, r io.Reader, w tracer.EventWriter) (int, error) {
	proto := thrift.NewTCompactProtocolConf(thrift.NewStreamTransportR(r), &thrift.TConfiguration{})

	n := 0
	for {
		e, _, err := tracer.ReadThriftEvent(ctx, proto)
		if err != nil {
			if isEndOfFile(err) {
				return n, nil
			}
			return n, errors.Wrapf(err, "read event %d", n)
		}
		if err := w.Write(e); err != nil {
			return n, errors.Wrap(err, "write event")
		}
		n++
	}
}

func isEndOfFile(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	var te thrift.TTransportException
	return errors.As(err, &te) && te.TypeId() == thrift.END_OF_FILE
}
