// Package notification consumes status update messages from the
// notifications fanout exchange and displays them to staff terminals.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hotel-backoffice/internal/logger"
	"hotel-backoffice/internal/messaging"
	"hotel-backoffice/internal/models"
)

// Subscriber handles notification messages.
type Subscriber struct {
	consumer *messaging.Consumer
	logger   *logger.Logger

	shutdown chan os.Signal
	done     chan bool
}

// NewSubscriber creates a new notification subscriber.
func NewSubscriber(consumer *messaging.Consumer, log *logger.Logger) *Subscriber {
	return &Subscriber{
		consumer: consumer,
		logger:   log,
		shutdown: make(chan os.Signal, 1),
		done:     make(chan bool, 1),
	}
}

// Start starts the notification subscriber and blocks until shutdown.
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()

	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)

	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	go func() {
		if err := s.consumer.StartConsuming(ctx, s.handleNotification); err != nil {
			s.logger.Error("consumer_failed", "Notification consumer failed", requestID, err, nil)
		}
		s.done <- true
	}()

	select {
	case <-s.shutdown:
		s.logger.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
		return s.gracefulShutdown(requestID)
	case <-s.done:
		return nil
	}
}

// handleNotification processes incoming status update notifications.
func (s *Subscriber) handleNotification(ctx context.Context, body []byte) error {
	requestID := logger.GenerateRequestID()

	var statusUpdate models.StatusUpdateMessage
	if err := json.Unmarshal(body, &statusUpdate); err != nil {
		s.logger.Error("message_parsing_failed", "Failed to parse notification message", requestID, err, nil)
		return fmt.Errorf("failed to parse notification: %w", err)
	}

	s.logger.Debug("notification_received", "Received status update notification", requestID, map[string]interface{}{
		"order_number": statusUpdate.OrderNumber,
		"new_status":   string(statusUpdate.NewStatus),
		"changed_by":   statusUpdate.ChangedBy,
	})

	s.displayNotification(&statusUpdate)

	return nil
}

// displayNotification prints a human-readable notification to stdout.
func (s *Subscriber) displayNotification(statusUpdate *models.StatusUpdateMessage) {
	notification := formatNotification(statusUpdate)

	fmt.Println(notification)

	s.logger.Info("notification_displayed", "Notification displayed to user", "", map[string]interface{}{
		"order_number": statusUpdate.OrderNumber,
		"old_status":   string(statusUpdate.OldStatus),
		"new_status":   string(statusUpdate.NewStatus),
		"changed_by":   statusUpdate.ChangedBy,
		"timestamp":    statusUpdate.Timestamp.Format("2006-01-02 15:04:05"),
	})
}

// formatNotification creates a human-readable notification message.
func formatNotification(statusUpdate *models.StatusUpdateMessage) string {
	timestamp := statusUpdate.Timestamp.Format("2006-01-02 15:04:05")

	switch statusUpdate.NewStatus {
	case models.StatusPickedUp:
		return fmt.Sprintf(
			"🛎️ [%s] Order %s for room %s has been picked up by %s.",
			timestamp,
			statusUpdate.OrderNumber,
			statusUpdate.RoomNumber,
			statusUpdate.ChangedBy,
		)
	case models.StatusReady:
		return fmt.Sprintf(
			"✅ [%s] Order %s for room %s is ready for delivery.",
			timestamp,
			statusUpdate.OrderNumber,
			statusUpdate.RoomNumber,
		)
	case models.StatusDelivered:
		return fmt.Sprintf(
			"🎉 [%s] Order %s has been delivered to room %s.",
			timestamp,
			statusUpdate.OrderNumber,
			statusUpdate.RoomNumber,
		)
	case models.StatusCancelled:
		return fmt.Sprintf(
			"❌ [%s] Order %s for room %s has been cancelled.",
			timestamp,
			statusUpdate.OrderNumber,
			statusUpdate.RoomNumber,
		)
	default:
		return fmt.Sprintf(
			"📋 [%s] Order %s status changed from '%s' to '%s' by %s.",
			timestamp,
			statusUpdate.OrderNumber,
			statusUpdate.OldStatus,
			statusUpdate.NewStatus,
			statusUpdate.ChangedBy,
		)
	}
}

// gracefulShutdown handles graceful shutdown of the subscriber.
func (s *Subscriber) gracefulShutdown(requestID string) error {
	s.logger.Info("graceful_shutdown", "Starting graceful shutdown", requestID, nil)

	if s.consumer != nil {
		s.consumer.Close()
	}

	s.logger.Info("graceful_shutdown", "Graceful shutdown completed", requestID, nil)
	return nil
}
