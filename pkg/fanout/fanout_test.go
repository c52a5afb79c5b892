package fanout_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vendora/vendora/pkg/fanout"
)

func TestAllRunsEveryTaskDespiteFailures(t *testing.T) {
	var ran []string

	outcomes := fanout.All(
		fanout.Task{Name: "first", Run: func() error {
			ran = append(ran, "first")
			return errors.New("smtp timeout")
		}},
		fanout.Task{Name: "second", Run: func() error {
			ran = append(ran, "second")
			return nil
		}},
		fanout.Task{Name: "third", Run: func() error {
			ran = append(ran, "third")
			return nil
		}},
	)

	assert.Equal(t, []string{"first", "second", "third"}, ran)
	assert.Len(t, outcomes, 3)
	assert.Len(t, fanout.Failed(outcomes), 1)
	assert.Equal(t, "first", fanout.Failed(outcomes)[0].Name)
}

func TestAllCapturesPanics(t *testing.T) {
	outcomes := fanout.All(
		fanout.Task{Name: "boom", Run: func() error { panic("nil mailer") }},
		fanout.Task{Name: "after", Run: func() error { return nil }},
	)

	failed := fanout.Failed(outcomes)
	assert.Len(t, failed, 1)
	assert.Contains(t, failed[0].Err.Error(), "panicked")
	assert.Nil(t, outcomes[1].Err)
}

func TestAllEmpty(t *testing.T) {
	assert.Empty(t, fanout.All())
}
