package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nihongo-master/tts-cache/internal/app"
	"github.com/nihongo-master/tts-cache/internal/artifact"
	"github.com/nihongo-master/tts-cache/internal/config"
	"github.com/nihongo-master/tts-cache/internal/queue"
	"github.com/nihongo-master/tts-cache/internal/synth"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ttsctl",
		Short:         "Operate the Japanese TTS synthesis cache",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newKeyCmd(),
		newSynthCmd(),
		newPrewarmCmd(),
		newVoicesCmd(),
		newLookupCmd(),
	)
	return root
}

func newKeyCmd() *cobra.Command {
	var speed, ext string
	cmd := &cobra.Command{
		Use:   "key TEXT",
		Short: "Print the content key and filename for TEXT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(args[0])
			if text == "" {
				return artifact.ErrInvalidInput
			}
			key := artifact.ContentKey(text, speed)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", key, artifact.Filename(key, ext))
			return nil
		},
	}
	cmd.Flags().StringVarP(&speed, "speed", "s", synth.DefaultSpeed, "relative rate modifier")
	cmd.Flags().StringVar(&ext, "ext", ".mp3", "artifact extension")
	return cmd
}

func newSynthCmd() *cobra.Command {
	var speed string
	cmd := &cobra.Command{
		Use:   "synth TEXT",
		Short: "Synthesize TEXT into the cache directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			art, err := a.Service.Synthesize(cmd.Context(), args[0], speed)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), art)
		},
	}
	cmd.Flags().StringVarP(&speed, "speed", "s", synth.DefaultSpeed, "relative rate modifier")
	return cmd
}

func newPrewarmCmd() *cobra.Command {
	var speed string
	cmd := &cobra.Command{
		Use:   "prewarm FILE",
		Short: "Queue one prewarm task per non-empty line of FILE (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			lines, err := readLines(in)
			if err != nil {
				return err
			}

			qc := queue.NewClient(cfg.Redis)
			defer qc.Close()

			for _, text := range lines {
				key := artifact.ContentKey(text, speed)
				if err := qc.EnqueuePrewarm(cmd.Context(), queue.PrewarmPayload{Text: text, Speed: speed}, key); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", key, text)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&speed, "speed", "s", synth.DefaultSpeed, "relative rate modifier")
	return cmd
}

func newVoicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List the voice catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, v := range artifact.Catalog() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", v.ID, v.Name, v.Gender)
			}
			return nil
		},
	}
}

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup KEY",
		Short: "Show the index record for a content key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if a.Index == nil {
				return errors.New("artifact index unavailable (is redis running?)")
			}
			e, err := a.Index.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), e)
		},
	}
}

func buildApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, nil)
}

// readLines returns trimmed, non-empty lines.
func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
