/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/acquisitions/apiserver/internal/events"
	"github.com/acquisitions/apiserver/internal/mq"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect account events on the message bus",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Log account events as they are published",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := setup()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		bus, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if bus == nil {
			return errors.New("MQ_BACKEND is none; nothing to tail")
		}
		defer func() {
			_ = bus.Close()
		}()

		channel := cfg.MQ.EventsChannel
		if flag, _ := cmd.Flags().GetString("channel"); flag != "" {
			channel = flag
		}

		logger.Info("tailing user events", "backend", cfg.MQ.Backend, "channel", channel)
		err = bus.Subscribe(ctx, channel, func(_ context.Context, msg mq.Message) error {
			event, err := events.Decode(msg)
			if err != nil {
				// Malformed payloads are dropped rather than redelivered forever.
				logger.Warn("skipping malformed event", "msg_id", msg.ID, "err", err)
				return nil
			}
			logger.Info("user event",
				"event_id", event.ID,
				"type", event.Type,
				"user_id", event.UserID,
				"occurred_at", event.OccurredAt,
			)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)

	eventsTailCmd.Flags().String("channel", "", "channel to tail (defaults to MQ_EVENTS_CHANNEL)")
}
