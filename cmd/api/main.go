package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pharmaciedusoleil/portal/internal/app"
	"github.com/pharmaciedusoleil/portal/internal/config"
	"github.com/pharmaciedusoleil/portal/internal/content"
	"github.com/pharmaciedusoleil/portal/internal/core/assistant"
	"github.com/pharmaciedusoleil/portal/internal/core/contact"
	"github.com/pharmaciedusoleil/portal/internal/core/conversation"
	"github.com/pharmaciedusoleil/portal/internal/core/timeline"
	"github.com/pharmaciedusoleil/portal/internal/models"
)

func main() {
	root := &cobra.Command{
		Use:           "pharmacie",
		Short:         "Pharmacie du Soleil portal backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(chatCmd())

	if err := root.Execute(); err != nil {
		config.Logger.WithError(err).Error("exiting")
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE:  runServe,
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant from the terminal",
		RunE:  runChat,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	config.InitLogger(cfg.LogLevel, cfg.IsProduction())

	application, err := app.NewApp(ctx, cfg, nil)
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}
	defer application.Close()

	config.Logger.Info("Pharmacie du Soleil portal is running.")
	if err := application.Run(ctx); err != nil {
		return err
	}
	config.Logger.Info("shutting down...")
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	config.InitLogger("warn", false)

	site, err := content.Load()
	if err != nil {
		return err
	}
	site.Contact(cfg.PharmacyPhone, cfg.WhatsAppNumber, cfg.PharmacyEmail, cfg.PharmacyAddress)

	links := contact.Links{Phone: cfg.PharmacyPhone, WhatsAppNumber: cfg.WhatsAppNumber}
	bot := assistant.New(assistant.NewMatcher(assistant.DefaultRules()), &assistant.Responder{Info: site.Pharmacy, Links: links})

	loop := timeline.NewLoop(timeline.SystemClock{Location: cfg.Location()}, config.Component("timeline"))
	go func() {
		if err := loop.Run(ctx); err != nil {
			config.Logger.WithError(err).Error("timeline stopped")
		}
	}()

	var session *conversation.Session
	loop.Do(func() {
		session = conversation.NewSession(loop, bot, conversation.Options{
			Key:   "chat/terminal",
			Delay: conversation.RandomDelay(cfg.ReplyDelayMin, cfg.ReplyDelayMax),
			Log:   config.Component("chat"),
		})
	})
	defer loop.Do(session.Close)

	out := cmd.OutOrStdout()
	seen := 0
	flush := func() bool {
		var (
			fresh  []models.Message
			typing bool
		)
		loop.Do(func() {
			all := session.Messages()
			fresh = all[seen:]
			seen = len(all)
			typing = session.Typing()
		})
		for _, m := range fresh {
			if m.Origin == models.OriginAssistant {
				printReply(out, m)
			}
		}
		return typing
	}
	flush()

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "/quit" || text == "/exit" {
			return nil
		}
		if strings.HasPrefix(text, "/page ") {
			path := strings.TrimSpace(strings.TrimPrefix(text, "/page "))
			loop.Do(func() { session.Navigate(path) })
			continue
		}

		var accepted bool
		loop.Do(func() { _, accepted = session.Send(text) })
		if !accepted {
			continue
		}
		for flush() {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
		}
	}
}

func printReply(w io.Writer, m models.Message) {
	fmt.Fprintf(w, "%s\n", m.Text)
	for _, a := range m.QuickActions {
		fmt.Fprintf(w, "  [%s] %s\n", a.Label, a.Target)
	}
	for _, s := range m.Suggestions {
		fmt.Fprintf(w, "  ? %s\n", s)
	}
}
