package event

import (
	"errors"
	"reflect"
	"time"
)

// Failure is the recorded description of an error linked to an event.
type Failure struct {
	Kind      string    `json:"exception_kind"`
	Message   string    `json:"exception_message"`
	CreatedAt time.Time `json:"created_at"`
}

// Kinder is implemented by errors that name their own category.
type Kinder interface {
	Kind() string
}

// Describe translates err into the plain fields an event stores.
// CreatedAt is left zero; LinkFailure stamps it.
func Describe(err error) Failure {
	if err == nil {
		return Failure{}
	}

	var k Kinder
	if errors.As(err, &k) && k.Kind() != "" {
		return Failure{Kind: k.Kind(), Message: err.Error()}
	}

	return Failure{Kind: typeName(innermost(err)), Message: err.Error()}
}

func innermost(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func typeName(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}
