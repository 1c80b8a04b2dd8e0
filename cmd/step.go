package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	json "github.com/json-iterator/go"
	"github.com/sfunderbots/robocore/backend"
	"github.com/sfunderbots/robocore/gamestate"
	"github.com/sfunderbots/robocore/ipc"
	"github.com/sfunderbots/robocore/node"
	"github.com/sfunderbots/robocore/perception"
	"github.com/sfunderbots/robocore/setup"
	"github.com/spf13/cobra"
)

func newStepCmd(a *app) *cobra.Command {
	var (
		input  string
		rounds int
	)
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Replay recorded referee and detection messages through the nodes in lockstep",
		Long: `step reads one envelope per line, {"type": "referee"|"detection", "data": ...},
and runs one synchronous round after every detection. The robot control
produced by each round is written to stdout as a robot_control envelope.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				in = f
			}
			return replay(cmd, a, in, rounds)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "JSON-lines recording to replay, - for stdin")
	cmd.Flags().IntVarP(&rounds, "rounds", "n", 0, "stop after this many rounds, 0 for the whole input")
	return cmd
}

func replay(cmd *cobra.Command, a *app, in io.Reader, rounds int) error {
	ctx := cmd.Context()
	p, err := setup.Build(a.store)
	if err != nil {
		return err
	}
	defer p.Close()
	control := p.Control.Topic().Subscribe()
	runner := p.Synchronous()
	enc := json.NewEncoder(cmd.OutOrStdout())

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), a.store.Snapshot().IPC.MaxMessageBytes)
	for line := 1; scanner.Scan(); line++ {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var env ipc.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		switch env.Type {
		case ipc.TypeReferee:
			var ref gamestate.Referee
			if err := env.Decode(&ref); err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			if err := p.Referee.TrySend(ref); err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			continue
		case ipc.TypeDetection:
			var frame perception.DetectionFrame
			if err := env.Decode(&frame); err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			if err := p.Detections.TrySend(frame); err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
		default:
			return fmt.Errorf("line %d: unsupported message type %q", line, env.Type)
		}

		if err := runner.Step(ctx); err != nil {
			return err
		}
		if err := emit(enc, control); err != nil {
			return err
		}
		if rounds > 0 && runner.Rounds() >= rounds {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	slog.Info("replay finished", "rounds", runner.Rounds())
	return nil
}

func emit(enc *json.Encoder, control *node.Subscriber[backend.RobotControl]) error {
	pending, err := control.Dump()
	if err != nil {
		return err
	}
	for _, rc := range pending {
		env, err := ipc.NewEnvelope(ipc.TypeRobotControl, rc)
		if err != nil {
			return err
		}
		if err := enc.Encode(env); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}
