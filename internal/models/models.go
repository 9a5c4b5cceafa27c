// package models defines the persisted data model for the download daemon
package models

// Model defines the base interface for all persistent models.
type Model interface {
	Key() string     // Key returns the unique identifier for this model
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error         // Create inserts a new model into the database
	Get(id string) (T, error)     // Get retrieves a model by its ID
	List(limit int) ([]T, error)  // List retrieves the newest models, up to limit (0 = all)
	Delete(id string) error       // Delete removes a model from the database by its ID
}
