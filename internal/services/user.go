package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mpetrashov/user-geo-service/internal/logger"
	"github.com/mpetrashov/user-geo-service/internal/models"
)

// ErrUserNotFound is returned when the requested user id does not exist.
var ErrUserNotFound = errors.New("user not found")

// DefaultCountry is used when neither the request nor the stored record
// carries a country.
const DefaultCountry = "US"

// UserReader defines read-only operations on the user collection.
type UserReader interface {
	Get(ctx context.Context, id string) (*models.User, error) // Returns nil when the id is absent
	List(ctx context.Context) ([]models.User, error)          // Returns the full collection
}

// UserWriter defines write operations on the user collection.
type UserWriter interface {
	Create(ctx context.Context, user models.User) (models.User, error)                                 // Persists a new record, store assigns the id
	Update(ctx context.Context, id string, upd models.UserUpdate, updatedAt int64) (*models.User, error) // Partial merge, returns the merged record
	Delete(ctx context.Context, id string) (bool, error)                                               // Reports whether a record existed
}

// Geocoder resolves a zip+country pair into coordinates and a timezone.
type Geocoder interface {
	Resolve(ctx context.Context, zipCode, country string) (*models.GeoPoint, error)
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// UserService implements the user record use cases and publishes mutation
// audit events to Kafka.
type UserService struct {
	readRepo    UserReader
	writeRepo   UserWriter
	geocoder    Geocoder
	kafkaWriter KafkaWriter
}

// NewUserService creates a new UserService.
func NewUserService(
	readRepo UserReader,
	writeRepo UserWriter,
	geocoder Geocoder,
	kafkaWriter KafkaWriter,
) *UserService {
	return &UserService{
		readRepo:    readRepo,
		writeRepo:   writeRepo,
		geocoder:    geocoder,
		kafkaWriter: kafkaWriter,
	}
}

// publishEvent publishes a mutation audit event to Kafka. Failures are logged
// and never fail the mutation itself.
func (s *UserService) publishEvent(ctx context.Context, event string, user models.User) {
	if s.kafkaWriter == nil {
		logger.Log.Debugw("Kafka writer not configured, skipping publishing", "event", event, "user_id", user.ID)
		return
	}

	data, err := json.Marshal(models.Event{Event: event, Data: user})
	if err != nil {
		logger.Log.Errorw("Failed to marshal audit event for Kafka", "event", event, "user_id", user.ID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(user.ID),
		Value: data,
	}

	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("Failed to publish audit event to Kafka", "event", event, "user_id", user.ID, "error", err)
	} else {
		logger.Log.Infow("Audit event published to Kafka", "event", event, "user_id", user.ID)
	}
}

// List returns users with pagination metadata. With nil params the whole
// collection is returned as one page. With params the collection is sorted by
// createdAt descending (id descending breaks ties, so pages stay
// deterministic) and sliced.
func (s *UserService) List(ctx context.Context, params *models.ListParams) (*models.UserList, error) {
	users, err := s.readRepo.List(ctx)
	if err != nil {
		logger.Log.Errorw("failed to list users", "error", err)
		return nil, err
	}

	if params == nil {
		return &models.UserList{
			Data: users,
			Pagination: models.Pagination{
				Page:       1,
				Limit:      len(users),
				Total:      len(users),
				TotalPages: 1,
			},
		}, nil
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt != users[j].CreatedAt {
			return users[i].CreatedAt > users[j].CreatedAt
		}
		return users[i].ID > users[j].ID
	})

	total := len(users)
	totalPages := (total + params.Limit - 1) / params.Limit

	offset := (params.Page - 1) * params.Limit
	end := offset + params.Limit
	if offset > total {
		offset = total
	}
	if end > total {
		end = total
	}

	return &models.UserList{
		Data: users[offset:end],
		Pagination: models.Pagination{
			Page:       params.Page,
			Limit:      params.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    params.Page < totalPages,
			HasPrev:    params.Page > 1,
		},
	}, nil
}

// Get returns the user with the given id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.readRepo.Get(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to get user", "user_id", id, "error", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Create geocodes the zip+country pair and persists a new record. Geocoding
// failures propagate before anything is written.
func (s *UserService) Create(ctx context.Context, name, zipCode, country string) (*models.User, error) {
	if country == "" {
		country = DefaultCountry
	}

	point, err := s.geocoder.Resolve(ctx, zipCode, country)
	if err != nil {
		logger.Log.Errorw("failed to geocode on create", "zip", zipCode, "country", country, "error", err)
		return nil, err
	}

	now := time.Now().UnixMilli()
	created, err := s.writeRepo.Create(ctx, models.User{
		Name:      name,
		ZipCode:   zipCode,
		Country:   country,
		Latitude:  point.Latitude,
		Longitude: point.Longitude,
		Timezone:  point.Timezone,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		logger.Log.Errorw("failed to create user", "name", name, "zip", zipCode, "error", err)
		return nil, err
	}

	s.publishEvent(ctx, models.EventUserCreated, created)

	return &created, nil
}

// Update applies a partial update. When the zip code changes, the record is
// re-geocoded with the effective country and the fresh coordinates and
// timezone override anything the caller supplied for those fields. updatedAt
// is always refreshed.
func (s *UserService) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	existing, err := s.readRepo.Get(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to get user for update", "user_id", id, "error", err)
		return nil, err
	}
	if existing == nil {
		return nil, ErrUserNotFound
	}

	zipChanged := upd.ZipCode != nil && *upd.ZipCode != existing.ZipCode
	if zipChanged {
		country := existing.Country
		if upd.Country != nil && *upd.Country != "" {
			country = *upd.Country
		}
		if country == "" {
			country = DefaultCountry
		}

		point, err := s.geocoder.Resolve(ctx, *upd.ZipCode, country)
		if err != nil {
			logger.Log.Errorw("failed to geocode on update", "user_id", id, "zip", *upd.ZipCode, "country", country, "error", err)
			return nil, err
		}

		upd.Latitude = &point.Latitude
		upd.Longitude = &point.Longitude
		upd.Timezone = &point.Timezone
	}

	updated, err := s.writeRepo.Update(ctx, id, upd, time.Now().UnixMilli())
	if err != nil {
		logger.Log.Errorw("failed to update user", "user_id", id, "error", err)
		return nil, err
	}
	if updated == nil {
		// Deleted between the existence check and the write.
		return nil, ErrUserNotFound
	}

	s.publishEvent(ctx, models.EventUserUpdated, *updated)

	return updated, nil
}

// Delete removes the user with the given id. A repeated delete reports
// ErrUserNotFound again rather than failing differently.
func (s *UserService) Delete(ctx context.Context, id string) error {
	existing, err := s.readRepo.Get(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to get user for delete", "user_id", id, "error", err)
		return err
	}
	if existing == nil {
		return ErrUserNotFound
	}

	ok, err := s.writeRepo.Delete(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to delete user", "user_id", id, "error", err)
		return err
	}
	if !ok {
		return ErrUserNotFound
	}

	s.publishEvent(ctx, models.EventUserDeleted, *existing)

	return nil
}
