package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var duplicateKeyMessages = []string{
	"duplicate key value violates unique constraint", // postgres 23505
	"Error 1062",                                     // mysql
	"UNIQUE constraint failed",                       // sqlite
}

// IsDuplicateKeyErr reports whether err is a unique or primary key violation.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	for _, marker := range duplicateKeyMessages {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
