package source

import (
	"context"
	"errors"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Source errors
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrCoerce            = errors.New("cannot coerce value")
)

// Loader loads the rows of a grid
type Loader interface {
	Load(ctx context.Context) ([]models.Row, error)
}
