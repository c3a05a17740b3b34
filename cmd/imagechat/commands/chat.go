package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mhpenta/imagechat"
	"github.com/spf13/cobra"
)

var (
	chatImages  []string
	chatHistory string
	chatNull    bool
	chatOutDir  string
)

var chatCmd = &cobra.Command{
	Use:   "chat [text]",
	Short: "Send one chat message",
	Long: `Send one chat message. Attached images are described or analyzed;
text that asks for a picture generates one; everything else gets a text reply.

A conversation can be continued by passing the JSON printed by a previous
call with --json to --history.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringArrayVar(&chatImages, "image", nil, "attach an image file (repeatable)")
	chatCmd.Flags().StringVar(&chatHistory, "history", "", "JSON file with prior messages")
	chatCmd.Flags().BoolVar(&chatNull, "null", false, "send an explicit null text")
	chatCmd.Flags().StringVarP(&chatOutDir, "out", "o", ".", "directory for generated images")
}

func runChat(cmd *cobra.Command, args []string) error {
	req := imagechat.ChatRequest{}
	switch {
	case chatNull:
		req.Text = imagechat.NullText()
	case len(args) > 0:
		req.Text = imagechat.TextOf(strings.Join(args, " "))
	}

	images, err := loadImages(chatImages)
	if err != nil {
		return err
	}
	req.Images = images

	if chatHistory != "" {
		history, err := loadHistory(chatHistory)
		if err != nil {
			return err
		}
		req.History = history
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := a.withTimeout(cmd.Context())
	defer cancel()

	result, err := a.chat.ProcessMessage(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, []imagechat.Message{result.UserMessage, result.AssistantMessage})
	}
	if rec := result.AssistantMessage.Image; rec != nil {
		where, err := saveRecord(chatOutDir, *rec)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved: %s\n", where)
		return nil
	}
	fmt.Fprintln(out, result.AssistantMessage.Content)
	return nil
}

// loadHistory reads a JSON array of messages.
func loadHistory(path string) ([]imagechat.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var history []imagechat.Message
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return history, nil
}
