package synth

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// LocalConfig holds configuration for the local Piper backend.
type LocalConfig struct {
	PiperBinPath string // default: "piper"
	ModelPath    string // required: path to the .onnx voice model
}

// Local synthesizes speech using the Piper binary via subprocess.
// The voice is fixed by the model file; speed maps onto --length_scale.
type Local struct {
	cfg LocalConfig
}

// NewLocal creates a Local backend backed by a Piper binary.
func NewLocal(cfg LocalConfig) *Local {
	if cfg.PiperBinPath == "" {
		cfg.PiperBinPath = "piper"
	}
	return &Local{cfg: cfg}
}

func (l *Local) Name() string { return "local-piper" }

// Synthesize pipes text into Piper via stdin and returns the WAV output from stdout.
func (l *Local) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if l.cfg.ModelPath == "" {
		return nil, fmt.Errorf("piper model path is required (set TTS_LOCAL_PIPER_MODEL)")
	}

	args, err := l.args(req.Speed)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, l.cfg.PiperBinPath, args...)
	cmd.Stdin = strings.NewReader(req.Text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("piper failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	return &Result{
		Audio:       stdout.Bytes(),
		ContentType: "audio/wav",
	}, nil
}

func (l *Local) args(speed string) ([]string, error) {
	rate, err := ParseRate(speed)
	if err != nil {
		return nil, err
	}
	args := []string{"--model", l.cfg.ModelPath, "--output_file", "-"}
	if rate != 1 {
		// Piper lengthens phonemes by this factor, so a faster rate shrinks it.
		args = append(args, "--length_scale", strconv.FormatFloat(1/rate, 'f', 3, 64))
	}
	return args, nil
}
