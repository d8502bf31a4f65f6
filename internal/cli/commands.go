package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/davidvella/barrace/internal/ingest"
	"github.com/davidvella/barrace/keyframe"
	"github.com/davidvella/barrace/monitoring"
	"github.com/davidvella/barrace/recordio"
	"github.com/davidvella/barrace/types"
	"github.com/spf13/cobra"
)

const (
	formatJSON = "json"
	formatRec  = "rec"
)

func importCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Store records from CSV, JSON or recordio files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var records []types.Record
			for _, path := range args {
				rs, err := ingest.ReadFile(path)
				if err != nil {
					return err
				}
				records = append(records, rs...)
			}

			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.builder.Ingest(cmd.Context(), records...); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d records\n", int(s.stats.Sum(monitoring.RecordsIngestedTotal)))
			return nil
		},
	}
}

// frameJSON is the line format printed by the keyframes command.
type frameJSON struct {
	Date    time.Time              `json:"date"`
	Records []types.KeyframeRecord `json:"records"`
}

func keyframesCmd(g *globals) *cobra.Command {
	var from, to, format string

	c := &cobra.Command{
		Use:   "keyframes",
		Short: "Print keyframes as JSON lines or recordio frames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, end, err := parseBounds(from, to)
			if err != nil {
				return err
			}
			if format != formatJSON && format != formatRec {
				return fmt.Errorf("unknown format %q", format)
			}

			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			frames, err := s.builder.Keyframes(cmd.Context(), start, end)
			if err != nil {
				return err
			}

			w := bufio.NewWriter(cmd.OutOrStdout())
			if err := writeFrames(w, format, frames); err != nil {
				return err
			}
			return w.Flush()
		},
	}

	c.Flags().StringVar(&from, "from", "", "first date to include (inclusive)")
	c.Flags().StringVar(&to, "to", "", "date to stop at (exclusive)")
	c.Flags().StringVar(&format, "format", formatJSON,
		"output format: json (one object per line) or rec (recordio frames, each a dated header followed by its records)")
	return c
}

func writeFrames(w io.Writer, format string, frames []keyframe.Keyframe) error {
	if format == formatRec {
		for _, f := range frames {
			if _, err := recordio.WriteFrame(w, recordio.Frame{Date: f.Date, Records: f.Records}); err != nil {
				return err
			}
		}
		return nil
	}

	enc := json.NewEncoder(w)
	for _, f := range frames {
		if err := enc.Encode(frameJSON{Date: f.Date, Records: f.Records}); err != nil {
			return err
		}
	}
	return nil
}

func ranksCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "ranks <date>",
		Short: "Print the ranked state as of a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := types.ParseDate(args[0])
			if err != nil {
				return err
			}

			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			ranks, err := s.builder.Ranks(cmd.Context(), date)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, r := range ranks {
				if err := enc.Encode(r); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func parseBounds(from, to string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if from != "" {
		if start, err = types.ParseDate(from); err != nil {
			return start, end, err
		}
	}
	if to != "" {
		if end, err = types.ParseDate(to); err != nil {
			return start, end, err
		}
	}
	return start, end, nil
}
