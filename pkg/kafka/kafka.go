package kafka

import (
	"time"

	"github.com/IBM/sarama"
)

const (
	LibraryTopic = "library-events"
)

type Config struct {
	Enabled bool     `envconfig:"KAFKA_ENABLED"`
	Addrs   []string `envconfig:"KAFKA_ADDRS" default:"localhost:9092"`
}

type EventType string

const (
	EventBookCheckedOut   EventType = "BOOK_CHECKED_OUT"
	EventBookAdded        EventType = "BOOK_ADDED"
	EventCopiesAdded      EventType = "COPIES_ADDED"
	EventMemberRegistered EventType = "MEMBER_REGISTERED"
)

// LibraryEvent is published after a circulation or catalog change commits.
type LibraryEvent struct {
	Type      EventType  `json:"type"`
	Timestamp time.Time  `json:"timestamp"`
	UserName  string     `json:"username"`
	MemberID  int64      `json:"memberId,omitempty"`
	ISBN      string     `json:"isbn,omitempty"`
	CopyUid   string     `json:"copyUid,omitempty"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
	Count     int        `json:"count,omitempty"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}
