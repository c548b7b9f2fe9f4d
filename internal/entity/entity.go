package entity

// Entity is anything persisted under a stable, deterministic id.
type Entity interface {
	Slug() string
}
