package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	o := Options{
		User:     "u",
		Password: "p",
		Host:     "db",
		Port:     "5432",
		Name:     "sagalog",
		SSLMode:  "disable",
	}
	assert.Equal(t, "postgres://u:p@db:5432/sagalog?sslmode=disable", DSN(o))
}

func TestMigrate_UnknownCommand(t *testing.T) {
	_, err := Migrate("postgres://u:p@127.0.0.1:1/none?sslmode=disable", "sideways")
	assert.ErrorContains(t, err, "unknown migration command")
}
