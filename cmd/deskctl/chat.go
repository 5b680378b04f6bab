package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/xaenox/deskbot/internal/chat"
	"github.com/xaenox/deskbot/internal/classifier"
)

// maxLineBytes bounds a single REPL line.
const maxLineBytes = 16 << 20

func newChatCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long:  "Start an interactive conversation. Type /reset to start over and /exit to quit.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			render := newRenderer(out)

			svc := chat.NewService(classifier.NewRuleClassifier(), c.log,
				chat.WithLowConfidenceThreshold(c.cfg.Chat.LowConfidenceThreshold))
			render(chat.WelcomeMessage)

			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}

				line := strings.TrimSpace(scanner.Text())
				switch line {
				case "":
					continue
				case "/exit", "/quit":
					return nil
				case "/reset":
					svc.Reset()
					render(chat.WelcomeMessage)
					continue
				}

				reply := svc.ProcessUserMessage(cmd.Context(), line)
				render(reply.Content)
			}
		},
	}
}

// newRenderer renders Markdown with glamour when out is a terminal and
// prints it verbatim otherwise.
func newRenderer(out io.Writer) func(string) {
	plain := func(md string) { fmt.Fprintln(out, md) }

	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return plain
	}

	width := 80
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 {
		width = w
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return plain
	}

	return func(md string) {
		rendered, err := r.Render(md)
		if err != nil {
			plain(md)
			return
		}
		fmt.Fprint(out, rendered)
	}
}
