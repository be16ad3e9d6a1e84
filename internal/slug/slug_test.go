package slug

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Hello World", want: "hello-world"},
		{in: "  10-Minute Morning Workout!!  ", want: "10-minute-morning-workout"},
		{in: "Women's Health: Iron & You", want: "women-s-health-iron-you"},
		{in: "Crème Brûlée, Light Edition", want: "creme-brulee-light-edition"},
		{in: "---", want: ""},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.in))
		})
	}
}

func TestMakeTruncates(t *testing.T) {
	got := Make(strings.Repeat("word ", 40))
	assert.LessOrEqual(t, len(got), MaxLength)
	assert.False(t, strings.HasSuffix(got, "-"))
}

func TestWithSuffix(t *testing.T) {
	assert.Equal(t, "foo-1700000000000", WithSuffix("foo", 1700000000000))

	long := strings.Repeat("a", MaxLength)
	got := WithSuffix(long, 42)
	assert.Len(t, got, MaxLength)
	assert.True(t, strings.HasSuffix(got, "-42"))
	assert.NotEqual(t, long, got)
}

var errTaken = errors.New("taken")

func TestInsertRetriesWithSuffix(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	var tried []string
	err := Insert(context.Background(), "sleep", now, 3, func(err error) bool { return errors.Is(err, errTaken) },
		func(s string) error {
			tried = append(tried, s)
			if len(tried) < 3 {
				return errTaken
			}
			return nil
		})

	assert.NoError(t, err)
	assert.Equal(t, []string{"sleep", "sleep-1700000000000", "sleep-1700000000001"}, tried)
}

func TestInsertStopsOnOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Insert(context.Background(), "sleep", time.Now(), 3, func(err error) bool { return errors.Is(err, errTaken) },
		func(string) error {
			calls++
			return boom
		})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}
