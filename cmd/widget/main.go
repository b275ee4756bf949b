package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/workcity-chat/backend/internal/client"
	"github.com/zhouzirui/workcity-chat/backend/internal/config"
	"github.com/zhouzirui/workcity-chat/backend/internal/live"
	"github.com/zhouzirui/workcity-chat/backend/internal/model/chat"
	"github.com/zhouzirui/workcity-chat/backend/internal/widget"
)

var (
	currentUser  string
	contextLabel string
	contextType  string
	contextRef   string
	apiURL       string
	liveURL      string
	authToken    string
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	rootCmd := &cobra.Command{
		Use:   "workcity-widget",
		Short: "Terminal chat window for the workcity chat backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg.Widget)
		},
	}

	rootCmd.Flags().StringVarP(&currentUser, "user", "u", cfg.Widget.CurrentUser, "current user identifier (anonymous when empty)")
	rootCmd.Flags().StringVarP(&contextLabel, "label", "l", cfg.Widget.ContextLabel, "context label used in session titles")
	rootCmd.Flags().StringVar(&contextType, "context-type", "", "link sessions to an order, product or generic context")
	rootCmd.Flags().StringVar(&contextRef, "context-ref", "", "identifier of the linked order or product")
	rootCmd.Flags().StringVar(&apiURL, "api-url", cfg.Widget.APIURL, "session store REST base url")
	rootCmd.Flags().StringVar(&liveURL, "live-url", cfg.Widget.LiveURL, "live channel url (ws, wss, http or https); empty means offline")
	rootCmd.Flags().StringVar(&authToken, "token", cfg.Widget.AuthToken, "bearer token with the edit_sessions capability")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(wcfg config.WidgetConfig) error {
	ctxType := chat.ContextType(strings.ToLower(strings.TrimSpace(contextType)))
	if !ctxType.Valid() {
		return fmt.Errorf("unknown context type %q", contextType)
	}

	channel, err := live.FromURL(liveURL, authToken)
	if err != nil {
		return err
	}

	var recorder widget.Recorder
	if apiURL != "" {
		recorder = client.New(apiURL, authToken)
	}

	w := widget.New(widget.Config{
		CurrentUser:      currentUser,
		ContextLabel:     contextLabel,
		ContextType:      ctxType,
		ContextRef:       strings.TrimSpace(contextRef),
		HandshakeTimeout: wcfg.HandshakeTimeout,
		ReplyDelay:       wcfg.ReplyDelay,
		AutoSession:      wcfg.AutoSession,
	}, channel, recorder)

	w.OnMessage(printMessage)
	w.Open()
	defer func() {
		w.Close()
		w.Wait()
	}()

	fmt.Println("Type a message and press enter. /quit exits.")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "/quit" {
			break
		}
		w.SetInput(line)
		w.Submit()
	}
	return scanner.Err()
}

func printMessage(m chat.Message) {
	ts := m.Timestamp.Format("15:04:05")
	switch m.Type {
	case chat.MessageUser:
		fmt.Printf("[%s] %s: %s\n", ts, m.Sender, m.Text)
	case chat.MessageBot:
		fmt.Printf("[%s] < %s: %s\n", ts, m.Sender, m.Text)
	case chat.MessageError:
		fmt.Printf("[%s] !! %s\n", ts, m.Text)
	default:
		fmt.Printf("[%s] -- %s\n", ts, m.Text)
	}
}
