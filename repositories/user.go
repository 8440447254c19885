//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"failly/domain"
	"failly/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	Create(displayName, passwordHash string) (domain.Profile, error)
	Get(userID domain.UserID) (domain.Profile, error)
	FindByDisplayName(displayName string) (domain.Profile, error)
	DisplayName(ctx context.Context, userID domain.UserID) (string, error)
}

// UserRepository persists account profiles in BadgerDB.
//
// Two key families: "profile:{userID}" holds the JSON profile, and
// "profilename:{displayName}" holds the owning userID so display names
// stay unique without a scan.
type UserRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewUserRepository(db *badger.DB, log *slog.Logger) UserRepository {
	return UserRepository{db: db, log: log}
}

type diskProfile struct {
	UserID       string    `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func profileKey(userID domain.UserID) []byte {
	return []byte(fmt.Sprintf("profile:%s", userID))
}

func nameKey(displayName string) []byte {
	return []byte(fmt.Sprintf("profilename:%s", displayName))
}

// Create allocates a fresh user id and stores the profile, rejecting a
// display name that is already claimed. Both keys are written in one
// transaction so the uniqueness index can never drift from the data.
func (r UserRepository) Create(displayName, passwordHash string) (domain.Profile, error) {
	profile := domain.Profile{
		UserID:       domain.UserID(uuid.NewString()),
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	bytes, err := json.Marshal(fromProfile(profile))
	if err != nil {
		return domain.Profile{}, err
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(nameKey(displayName)); err == nil {
			return errors.ErrDisplayNameTaken
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		if err := txn.Set(nameKey(displayName), []byte(profile.UserID)); err != nil {
			return err
		}
		return txn.Set(profileKey(profile.UserID), bytes)
	})
	if err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

func (r UserRepository) Get(userID domain.UserID) (domain.Profile, error) {
	var disk diskProfile
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(profileKey(userID))
		if err == badger.ErrKeyNotFound {
			return errors.ErrProfileNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &disk)
		})
	})
	if err != nil {
		return domain.Profile{}, err
	}
	return toProfile(disk), nil
}

func (r UserRepository) FindByDisplayName(displayName string) (domain.Profile, error) {
	var userID domain.UserID
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nameKey(displayName))
		if err == badger.ErrKeyNotFound {
			return errors.ErrProfileNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			userID = domain.UserID(value)
			return nil
		})
	})
	if err != nil {
		return domain.Profile{}, err
	}
	return r.Get(userID)
}

// DisplayName is the lookup the matching engine performs while pairing;
// it implements contract.ProfileDirectory.
func (r UserRepository) DisplayName(_ context.Context, userID domain.UserID) (string, error) {
	profile, err := r.Get(userID)
	if err != nil {
		return "", err
	}
	return profile.DisplayName, nil
}

func fromProfile(p domain.Profile) diskProfile {
	return diskProfile{
		UserID:       string(p.UserID),
		DisplayName:  p.DisplayName,
		PasswordHash: p.PasswordHash,
		CreatedAt:    p.CreatedAt,
	}
}

func toProfile(d diskProfile) domain.Profile {
	return domain.Profile{
		UserID:       domain.UserID(d.UserID),
		DisplayName:  d.DisplayName,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}
}
