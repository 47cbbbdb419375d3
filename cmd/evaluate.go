package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lienwise/bidengine/internal/ingest"
)

var (
	evaluateInput string
	evaluateSave  bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a single parcel fact sheet",
	Long:  "Reads one fact sheet JSON document, runs the full decision pipeline and prints the decision record. Use --save to persist the record.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := readInput(evaluateInput)
		if err != nil {
			return err
		}

		sheet, err := ingest.Decode(data)
		if err != nil {
			return err
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}

		record, err := eng.Evaluate(ctx, sheet)
		if err != nil {
			return err
		}

		if evaluateSave {
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			id, err := st.SaveDecision(ctx, record)
			if err != nil {
				return err
			}
			record.ID = id
			zap.L().Info("decision saved", zap.String("id", id))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(record), "encode decision record")
	},
}

// readInput reads from a file path, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "" {
		return nil, eris.New("--input is required")
	}
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return data, eris.Wrap(err, "read stdin")
	}
	data, err := os.ReadFile(path)
	return data, eris.Wrapf(err, "read %s", path)
}

func init() {
	evaluateCmd.Flags().StringVar(&evaluateInput, "input", "", "fact sheet JSON file ('-' for stdin)")
	evaluateCmd.Flags().BoolVar(&evaluateSave, "save", false, "persist the decision record")
	rootCmd.AddCommand(evaluateCmd)
}
