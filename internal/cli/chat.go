package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/trustbrowser/internal/llm"
	"github.com/ppiankov/trustbrowser/internal/model"
	"github.com/ppiankov/trustbrowser/internal/pipeline"
)

var chatTimeout time.Duration

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Talk to the in-browser assistant",
	Long: `Chat streams the assistant's reply as it arrives. With a message
argument it answers once; without one it reads messages from stdin until
EOF, keeping the conversation history.

Example:
  trustbrowser chat what is a knowledge asset
  trustbrowser chat`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().DurationVar(&chatTimeout, "timeout", 30*time.Minute, "session timeout")
}

func runChat(cmd *cobra.Command, args []string) error {
	return withServices(chatTimeout, func(ctx context.Context, cfg *model.Config, s *pipeline.Services) error {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()

		if len(args) > 0 {
			streamReply(ctx, os.Stdout, s.Assistant, nil, strings.Join(args, " "))
			return nil
		}

		if !s.Assistant.IsEnabled() {
			fmt.Fprintln(os.Stderr, llm.NoKeyMessage)
			return nil
		}
		return chatLoop(ctx, os.Stdin, os.Stdout, s.Assistant)
	})
}

// chatLoop reads one message per line and streams each reply, carrying the
// history forward
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, a *llm.Assistant) error {
	var history []llm.Message
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		msg := strings.TrimSpace(scanner.Text())
		if msg == "" {
			continue
		}

		reply := streamReply(ctx, out, a, history, msg)
		history = append(history,
			llm.Message{Role: llm.RoleUser, Text: msg},
			llm.Message{Role: llm.RoleModel, Text: reply})

		if ctx.Err() != nil {
			return nil
		}
	}
}

func streamReply(ctx context.Context, out io.Writer, a *llm.Assistant, history []llm.Message, msg string) string {
	var reply strings.Builder
	for chunk := range a.Stream(ctx, history, msg) {
		reply.WriteString(chunk)
		fmt.Fprint(out, chunk)
	}
	fmt.Fprintln(out)
	return reply.String()
}
