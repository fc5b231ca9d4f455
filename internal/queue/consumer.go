package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartReservationConsumer connects to RabbitMQ, declares the durable
// reservation event queues, and starts consuming messages. Each event
// is appended to logs/reservation.log in a single-line, human-friendly
// format. The function runs a reconnect loop; it keeps running and
// logs any processing errors while rejecting the offending message so
// the server continues operating.
func StartReservationConsumer() error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Printf("reservation-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Printf("reservation-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("reservation-consumer: set QoS failed: %v", err)
	}

	for _, name := range []string{ConfirmedQueue, CancelledQueue} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
	}

	confirmed, err := ch.Consume(ConfirmedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	cancelled, err := ch.Consume(CancelledQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		var d amqp.Delivery
		var ok bool
		var line func([]byte) (string, error)
		select {
		case d, ok = <-confirmed:
			line = confirmedLine
		case d, ok = <-cancelled:
			line = cancelledLine
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		if err := appendLog(d.Body, line); err != nil {
			log.Printf("reservation-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
}

func confirmedLine(body []byte) (string, error) {
	var ev ReservationConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return "", fmt.Errorf("unmarshal: %w", err)
	}
	return fmt.Sprintf("[%s] Reservation confirmed | reservation_id=%d | member_id=%d | member=%q | theme=%q | slot=%s %s | amount=%d\n",
		ev.ConfirmedAt, ev.ReservationID, ev.MemberID, ev.MemberName, ev.ThemeName, ev.Date, ev.StartAt, ev.Amount), nil
}

func cancelledLine(body []byte) (string, error) {
	var ev ReservationCancelledEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return "", fmt.Errorf("unmarshal: %w", err)
	}
	return fmt.Sprintf("[%s] Reservation cancelled | reservation_id=%d | member_id=%d | theme=%q | slot=%s %s | refunded=%t | promoted_member_id=%d\n",
		ev.CancelledAt, ev.ReservationID, ev.MemberID, ev.ThemeName, ev.Date, ev.StartAt, ev.Refunded, ev.PromotedMemberID), nil
}

func appendLog(body []byte, line func([]byte) (string, error)) error {
	s, err := line(body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "reservation.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(s); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
