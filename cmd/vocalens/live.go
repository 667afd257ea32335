package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vocalens/vocalens/pkg/edit"
	"github.com/vocalens/vocalens/pkg/live"
	"github.com/vocalens/vocalens/pkg/studio"
)

func newLiveCmd(configPath, apiKey *string) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "live [image]",
		Short: "Talk to the editing agent over a live audio session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, *apiKey)
			if err != nil {
				return err
			}
			logger := newLogger(quiet)

			var editOpts []edit.Option
			if cfg.EditModel != "" {
				editOpts = append(editOpts, edit.WithModel(cfg.EditModel))
			}
			editOpts = append(editOpts, edit.WithLogger(logger))
			svc, err := edit.NewService(cmd.Context(), cfg.apiKey, editOpts...)
			if err != nil {
				return err
			}
			st := studio.New(svc, studio.WithLogger(logger))

			if len(args) == 1 {
				image, err := loadImageDataURL(args[0])
				if err != nil {
					return err
				}
				st.Load(image)
			}

			session, err := st.StartLive(cmd.Context(), live.Config{
				APIKey:       cfg.apiKey,
				Model:        cfg.Model,
				Voice:        cfg.Voice,
				SystemPrompt: cfg.SystemPrompt,
				Logger:       logger,
			})
			if err != nil {
				return err
			}
			defer st.StopLive()

			out := cmd.OutOrStdout()
			go pumpEvents(session, st, out)

			fmt.Fprintln(out, agentStyle.Render("live session open — speak, or type an instruction"))
			fmt.Fprintln(out, dimStyle.Render("commands: /undo /redo /history /frame /save <file> /end"))
			return repl(cmd, st, out)
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress log output")
	return cmd
}

// pumpEvents renders session events as they arrive. On a session error the
// live state is forced closed, matching the error policy: log, revert, never
// crash.
func pumpEvents(session *live.Session, st *studio.Studio, out io.Writer) {
	for event := range session.Events() {
		switch e := event.(type) {
		case live.TranscriptEvent:
			switch {
			case e.Source == live.SourceUser:
				fmt.Fprintf(out, "\r%s %s\n", userStyle.Render("you:"), e.Text)
			case e.Final:
				fmt.Fprintf(out, "\r%s %s\n", agentStyle.Render("agent:"), e.Text)
			}
		case live.ToolCallEvent:
			fmt.Fprintf(out, "\r%s %s(%v)\n", toolStyle.Render("tool:"), e.Name, e.Args["prompt"])
		case live.InterruptedEvent:
			fmt.Fprintln(out, dimStyle.Render("\r[agent interrupted]"))
		case live.ErrorEvent:
			fmt.Fprintf(out, "\r%s %v\n", errStyle.Render("session error:"), e.Err)
			st.StopLive()
		case live.ClosedEvent:
			fmt.Fprintln(out, dimStyle.Render("\r[session closed]"))
		}
	}
}

func repl(cmd *cobra.Command, st *studio.Studio, out io.Writer) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/end" || line == "/exit":
			return nil
		case line == "/undo":
			if _, ok := st.History().Undo(); ok {
				fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("at history index %d", st.History().Index())))
			} else {
				fmt.Fprintln(out, dimStyle.Render("nothing to undo"))
			}
		case line == "/redo":
			if _, ok := st.History().Redo(); ok {
				fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("at history index %d", st.History().Index())))
			} else {
				fmt.Fprintln(out, dimStyle.Render("nothing to redo"))
			}
		case line == "/history":
			fmt.Fprintln(out, renderHistory(st.History()))
		case line == "/frame":
			if st.SendFrame() {
				fmt.Fprintln(out, dimStyle.Render("sent current image to the agent"))
			} else {
				fmt.Fprintln(out, dimStyle.Render("no open session or no image loaded"))
			}
		case strings.HasPrefix(line, "/save "):
			item, ok := st.History().Current()
			if !ok {
				fmt.Fprintln(out, errStyle.Render("no image to save"))
				continue
			}
			path := strings.TrimSpace(strings.TrimPrefix(line, "/save "))
			if err := writeImageDataURL(item.Image, path); err != nil {
				fmt.Fprintf(out, "%s %v\n", errStyle.Render("save failed:"), err)
				continue
			}
			fmt.Fprintln(out, agentStyle.Render("wrote "+path))
		case strings.HasPrefix(line, "/"):
			fmt.Fprintln(out, dimStyle.Render("commands: /undo /redo /history /frame /save <file> /end"))
		default:
			if _, err := st.ApplyEdit(cmd.Context(), line); err != nil {
				fmt.Fprintf(out, "%s %v\n", errStyle.Render("edit failed:"), err)
				continue
			}
			fmt.Fprintln(out, agentStyle.Render(fmt.Sprintf("edit applied (history index %d)", st.History().Index())))
		}
	}
}
