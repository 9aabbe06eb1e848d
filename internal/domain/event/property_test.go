package event

import (
	"errors"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// applyOps drives e through a sequence of mutators chosen by ops.
func applyOps(e *Event, ops []int) {
	for i, op := range ops {
		switch op % 5 {
		case 0:
			e.Start()
		case 1:
			e.AttemptRetry()
		case 2:
			e.LinkError(errors.New("boom"))
		case 3:
			_ = e.Complete(map[string]int{"step": i}, "done")
		case 4:
			_ = e.CacheSet("step", i)
		}
	}
}

func TestEventProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("load(dump(e)) equals e", prop.ForAll(
		func(tx, transition string, args []string, ops []int) bool {
			anyArgs := make([]any, len(args))
			for i, a := range args {
				anyArgs[i] = a
			}
			e, err := Create(&seqIDs{}, tx, transition, anyArgs...)
			if err != nil {
				return false
			}
			applyOps(e, ops)

			raw, err := Dump(e)
			if err != nil {
				return false
			}
			loaded, err := Load(raw)
			if err != nil {
				return false
			}
			return reflect.DeepEqual(e, loaded)
		},
		gen.Identifier(),
		gen.AlphaString(),
		gen.SliceOf(gen.AnyString()),
		gen.SliceOf(gen.IntRange(0, 4)),
	))

	properties.Property("identity never changes", prop.ForAll(
		func(tx string, ops []int) bool {
			e, err := Create(&seqIDs{}, tx, "activate")
			if err != nil {
				return false
			}
			id := e.ID()
			applyOps(e, ops)
			return e.ID() == id && e.TransactionID() == tx
		},
		gen.Identifier(),
		gen.SliceOf(gen.IntRange(0, 4)),
	))

	properties.Property("attempts grow by one per retry only", prop.ForAll(
		func(ops []int) bool {
			e, _ := Create(&seqIDs{}, "tx-1", "activate")
			retries := 0
			prev := e.AttemptsCount()
			for _, op := range ops {
				applyOps(e, []int{op})
				if op%5 == 1 {
					retries++
				}
				if e.AttemptsCount() < prev {
					return false
				}
				prev = e.AttemptsCount()
			}
			return e.AttemptsCount() == 1+retries
		},
		gen.SliceOf(gen.IntRange(0, 4)),
	))

	properties.Property("completion fields present iff success", prop.ForAll(
		func(ops []int) bool {
			e, _ := Create(&seqIDs{}, "tx-1", "activate")
			applyOps(e, ops)
			hasCompletion := e.Destination() != nil && e.Changes() != nil
			noCompletion := e.Destination() == nil && e.Changes() == nil
			if e.IsSuccess() {
				return hasCompletion && e.Failure() == nil
			}
			return noCompletion
		},
		gen.SliceOf(gen.IntRange(0, 4)),
	))

	properties.TestingRun(t)
}
