// File: internal/repository/clientstate/interface.go
package clientstate

import "context"

// Well-known state keys. Values are opaque JSON blobs with no schema
// versioning; readers must tolerate anything they cannot decode.
const (
	KeyLastUser        = "last_user"
	KeyRecentLocations = "recent_weather_locations"
)

// StateRepository persists small client-side blobs (last logged-in user,
// recently queried weather locations) between sessions.
type StateRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
