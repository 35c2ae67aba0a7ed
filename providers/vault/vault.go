// Package vault answers hydration lookups from HashiCorp Vault secrets.
//
// Both KV engines are supported. A KV v2 read returns the payload wrapped in
// a "data" key next to "metadata"; it is unwrapped automatically:
//
//	client, err := vault.NewClientFromEnvironment(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	creds, err := vault.Hydrate(ctx, engine, client.Logical(), "secret/data/kitchen/db")
package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/hashicorp/vault/api"

	"github.com/hengadev/hydrx"
)

var (
	ErrUnavailable    = errors.New("vault unavailable")
	ErrAuthentication = errors.New("vault authentication failed")
	ErrNotFound       = errors.New("secret not found")
	ErrInvalidSecret  = errors.New("invalid secret format")
)

// LogicalReader reads raw secrets. *api.Logical implements it.
type LogicalReader interface {
	ReadWithContext(ctx context.Context, path string) (*api.Secret, error)
}

// Secret is the flattened payload of one Vault secret.
type Secret struct {
	values map[string]any
	// Version is the KV v2 version, 0 for KV v1 secrets.
	Version int
}

// FromSecret unwraps a KV v1 or KV v2 secret.
func FromSecret(s *api.Secret) (Secret, error) {
	if s == nil || s.Data == nil {
		return Secret{}, ErrNotFound
	}

	data, hasData := s.Data["data"]
	metadata, hasMetadata := s.Data["metadata"].(map[string]any)
	if !hasData || !hasMetadata {
		return Secret{values: s.Data}, nil
	}

	// A deleted KV v2 version reads as data: null.
	if data == nil {
		return Secret{}, ErrNotFound
	}
	values, ok := data.(map[string]any)
	if !ok {
		return Secret{}, fmt.Errorf("%w: KV v2 data is %T", ErrInvalidSecret, data)
	}

	out := Secret{values: values}
	if v, ok := metadata["version"]; ok {
		out.Version, _ = toInt(v)
	}
	return out, nil
}

// Lookup answers key from the payload. Strings, numbers and booleans are
// values; missing keys, nulls and nested objects are nulls.
func (s Secret) Lookup(key string) hydrx.Result {
	switch v := s.values[key].(type) {
	case string:
		return hydrx.Value(v)
	case json.Number:
		return hydrx.Value(v.String())
	case bool:
		return hydrx.Value(strconv.FormatBool(v))
	case float64:
		return hydrx.Value(strconv.FormatFloat(v, 'f', -1, 64))
	case int:
		return hydrx.Value(strconv.Itoa(v))
	case int64:
		return hydrx.Value(strconv.FormatInt(v, 10))
	default:
		return hydrx.Null()
	}
}

// Read fetches and unwraps the secret at path.
func Read(ctx context.Context, r LogicalReader, path string) (Secret, error) {
	s, err := r.ReadWithContext(ctx, path)
	if err != nil {
		return Secret{}, fmt.Errorf("%w: failed to read %s: %w", ErrUnavailable, path, err)
	}
	secret, err := FromSecret(s)
	if err != nil {
		return Secret{}, fmt.Errorf("%s: %w", path, err)
	}
	return secret, nil
}

// Hydrate reads path and builds a T from its payload.
func Hydrate[T any](ctx context.Context, e *hydrx.Engine[T], r LogicalReader, path string, opts ...hydrx.CallOption) (*T, error) {
	secret, err := Read(ctx, r, path)
	if err != nil {
		return nil, err
	}
	return e.Hydrate(secret.Lookup, append([]hydrx.CallOption{hydrx.WithContext(ctx)}, opts...)...)
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected version type %T", v)
	}
}
