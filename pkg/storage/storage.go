package storage

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Type is a driver name a ServiceStorage implementation registers itself under
type Type string

const (
	Bolt     Type = "bolt"
	Memory   Type = "memory"
	Redis    Type = "redis"
	Postgres Type = "postgres"
)

// OptionKey uniquely identifies a storage option
type OptionKey string

// Option is a driver-specific configuration value passed to Init
type Option struct {
	ID     OptionKey
	Option any
}

// ServiceStorage describes the api for storage independent of DB providers
type ServiceStorage interface {
	Init(opts ...Option) error
	Type() Type
	URI() string
	IsOpen() bool
	Close() error
	Write(ctx context.Context, namespace, key string, value []byte) error
	Read(ctx context.Context, namespace, key string) ([]byte, error)
	Exists(ctx context.Context, namespace, key string) (bool, error)
	ReadAll(ctx context.Context, namespace string) (map[string][]byte, error)
	ReadAllKeys(ctx context.Context, namespace string) ([]string, error)
	Delete(ctx context.Context, namespace, key string) error
	DeleteNamespace(ctx context.Context, namespace string) error
}

var registeredStorages = make(map[Type]ServiceStorage)

// RegisterStorage makes a driver available to NewStorage. Each driver registers itself
// from its init function; registering the same type twice is a programming error.
func RegisterStorage(s ServiceStorage) error {
	if _, ok := registeredStorages[s.Type()]; ok {
		return fmt.Errorf("storage type<%s> already registered", s.Type())
	}
	registeredStorages[s.Type()] = s
	return nil
}

// IsStorageAvailable returns whether the given driver has been registered
func IsStorageAvailable(t Type) bool {
	_, ok := registeredStorages[t]
	return ok
}

// AvailableStorage returns the registered driver names
func AvailableStorage() []Type {
	types := make([]Type, 0, len(registeredStorages))
	for t := range registeredStorages {
		types = append(types, t)
	}
	return types
}

// NewStorage initializes the registered driver of the given type with the given options
func NewStorage(t Type, opts ...Option) (ServiceStorage, error) {
	s, ok := registeredStorages[t]
	if !ok {
		return nil, errors.Errorf("storage type<%s> is not registered", t)
	}
	if err := s.Init(opts...); err != nil {
		return nil, errors.Wrapf(err, "initializing storage type<%s>", t)
	}
	return s, nil
}

func findOption(key OptionKey, opts ...Option) (any, bool) {
	for _, opt := range opts {
		if opt.ID == key {
			return opt.Option, true
		}
	}
	return nil, false
}

func stringOption(key OptionKey, opts ...Option) (string, bool) {
	v, ok := findOption(key, opts...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
