package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shawnhank/nomnomlog-sub000/internal/domain"
	pkgkafka "github.com/shawnhank/nomnomlog-sub000/pkg/kafka"
	"github.com/shawnhank/nomnomlog-sub000/pkg/logger"
)

// Kafka topics for journal domain events.
const (
	TopicUserRegistered = "nomnomlog.user.registered"
	TopicUserUpdated    = "nomnomlog.user.updated"
	TopicUserLoggedOut  = "nomnomlog.user.logged_out"
	TopicMealLogged     = "nomnomlog.meal.logged"
)

const (
	aggregateUser = "user"
	aggregateMeal = "meal"
	source        = "nomnomlog-api"
)

// UserData is the payload of user.registered and user.updated.
type UserData struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	IsAdmin  bool   `json:"is_admin"`
}

// UserLoggedOutData is the payload of user.logged_out. The token itself is
// never published.
type UserLoggedOutData struct {
	UserID string `json:"user_id"`
}

// MealLoggedData is the payload of meal.logged.
type MealLoggedData struct {
	ID           string   `json:"id"`
	UserID       string   `json:"user_id"`
	RestaurantID string   `json:"restaurant_id"`
	Name         string   `json:"name"`
	Rating       int      `json:"rating"`
	Tags         []string `json:"tags"`
}

// Publisher writes an event to a topic. *pkgkafka.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes journal domain events. With a nil Publisher every
// event is dropped, which is how the service runs without Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	if p.kafka == nil {
		p.logger.DebugContext(ctx, "event dropped, kafka disabled", slog.String("topic", topic))
		return nil
	}

	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// PublishUserRegistered publishes user.registered.
func (p *Producer) PublishUserRegistered(ctx context.Context, u *domain.User) error {
	return p.publish(ctx, TopicUserRegistered, u.ID, aggregateUser, userData(u))
}

// PublishUserUpdated publishes user.updated.
func (p *Producer) PublishUserUpdated(ctx context.Context, u *domain.User) error {
	return p.publish(ctx, TopicUserUpdated, u.ID, aggregateUser, userData(u))
}

// PublishUserLoggedOut publishes user.logged_out.
func (p *Producer) PublishUserLoggedOut(ctx context.Context, userID string) error {
	return p.publish(ctx, TopicUserLoggedOut, userID, aggregateUser, UserLoggedOutData{UserID: userID})
}

// PublishMealLogged publishes meal.logged.
func (p *Producer) PublishMealLogged(ctx context.Context, m *domain.Meal) error {
	return p.publish(ctx, TopicMealLogged, m.ID, aggregateMeal, MealLoggedData{
		ID:           m.ID,
		UserID:       m.UserID,
		RestaurantID: m.RestaurantID,
		Name:         m.Name,
		Rating:       m.Rating,
		Tags:         m.Tags,
	})
}

func userData(u *domain.User) UserData {
	return UserData{ID: u.ID, Email: u.Email, FullName: u.FullName, IsAdmin: u.IsAdmin}
}
