package services

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/cacheaside"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/models"
	apperrors "github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/errors"
)

var (
	// ErrPostNotFound indicates the requested post does not exist.
	ErrPostNotFound = cacheaside.NotFound(models.PostKind)
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = cacheaside.NotFound(models.UserKind)
	// ErrInvalidAction rejects reactions other than like and dislike.
	ErrInvalidAction = apperrors.New("INVALID_ACTION", "Invalid action (must be 'like' or 'dislike')", http.StatusBadRequest)
	// ErrUsernameTaken reports a duplicate username.
	ErrUsernameTaken = apperrors.New("USERNAME_TAKEN", "Username already exists", http.StatusBadRequest)
)

// isUniqueConstraintError detects uniqueness violations across SQL vendors and MongoDB.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || mongo.IsDuplicateKeyError(err) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique") ||
		strings.Contains(lower, "duplicate")
}
