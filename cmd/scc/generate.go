package main

import (
	"bufio"
	"io"
	"os"
	"time"

	"github.com/didi/scc/internal/config"
	"github.com/didi/scc/pkg/event"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// syscalls cycled through by generated records
var generatedSyscalls = []uint32{0, 1, 3, 9, 39, 57, 59, 60, 202, 257}

func newGenerateCommand() *cobra.Command {
	var (
		count int
		out   string
		tail  int
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write synthetic records in the configured layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			layout, err := cfg.RecordLayout()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return errors.Wrap(err, "create output")
				}
				defer f.Close()
				w = f
			}

			n, err := generateRecords(w, layout, count, tail, uint64(time.Now().UnixNano()))
			if err != nil {
				return err
			}
			cmd.PrintErrf("wrote %s records (%s) in layout %s\n",
				humanize.Comma(int64(count)), humanize.Bytes(uint64(n)), layout.Name())
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 16, "number of records")
	cmd.Flags().StringVar(&out, "out", "", "output file, stdout if empty")
	cmd.Flags().IntVar(&tail, "tail", 0, "append this many bytes of an incomplete record")
	return cmd
}

// generateRecords writes count records followed by tail bytes of one more
// record and returns the number of bytes written.
func generateRecords(w io.Writer, layout *event.Layout, count, tail int, start uint64) (int, error) {
	if count < 0 {
		return 0, errors.Errorf("negative count %d", count)
	}
	if tail < 0 || tail >= layout.Size() {
		return 0, errors.Errorf("tail must be in [0, %d)", layout.Size())
	}

	bw := bufio.NewWriter(w)
	buf := make([]byte, layout.Size())
	total := 0
	for i := 0; i <= count; i++ {
		e := syntheticEvent(i, start)
		if err := layout.EncodeTo(buf, e); err != nil {
			return total, err
		}
		data := buf
		if i == count {
			data = buf[:tail]
		}
		n, err := bw.Write(data)
		total += n
		if err != nil {
			return total, errors.Wrap(err, "write record")
		}
	}
	return total, errors.Wrap(bw.Flush(), "flush records")
}

func syntheticEvent(i int, start uint64) event.SyscallEvent {
	pid := uint32(1000 + i%4)
	e := event.SyscallEvent{
		UID:       uint32(i % 2 * 1000),
		PID:       pid,
		PPID:      1,
		TID:       pid,
		Timestamp: start + uint64(i)*1000,
		SyscallNr: generatedSyscalls[i%len(generatedSyscalls)],
	}
	for j := range e.SyscallArgs {
		e.SyscallArgs[j] = uint64(i*event.NumArgs + j)
	}
	e.SyscallRet = uint64(i)
	return e
}
