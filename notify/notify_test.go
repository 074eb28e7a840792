package notify

import (
	"errors"
	"fmt"
	"testing"

	"github.com/harperreed/dealboard/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestReportSuccess(t *testing.T) {
	var c Collector
	ok := Report(&c, service.Result[bool]{Value: true}, "delete contact", "Contact deleted")

	assert.True(t, ok)
	items := c.Drain()
	require.Len(t, items, 1)
	assert.Equal(t, LevelSuccess, items[0].Level)
	assert.Equal(t, "Contact deleted", items[0].Message)
	assert.Len(t, items[0].ID, 26)
	assert.Empty(t, c.Drain())
}

func TestReportPartialFailureWarns(t *testing.T) {
	var c Collector
	res := service.Result[int]{Value: 1, Failures: []service.Failure{{Field: "Email", Message: "is invalid"}}}

	assert.True(t, Report(&c, res, "create contact", "Contact created"))
	items := c.Drain()
	require.Len(t, items, 2)
	assert.Equal(t, LevelWarning, items[1].Level)
	assert.Equal(t, []string{"Email: is invalid"}, items[1].Details)
}

func TestReportFailureKinds(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: dial tcp", service.ErrUnavailable), "record store is unavailable"},
		{service.ErrNotFound, "record not found"},
		{service.ErrInvalid, "some fields are invalid"},
		{errors.New("boom"), "boom"},
	}
	for _, tc := range cases {
		var c Collector
		ok := Report(&c, service.Result[bool]{Err: tc.err}, "update deal", "")
		assert.False(t, ok)
		items := c.Drain()
		require.Len(t, items, 1)
		assert.Equal(t, LevelError, items[0].Level)
		assert.Contains(t, items[0].Message, "Failed to update deal")
		assert.Contains(t, items[0].Message, tc.want)
	}
}

func TestIDsAreOrdered(t *testing.T) {
	a := New(LevelInfo, "a")
	b := New(LevelInfo, "b")
	assert.Less(t, a.ID, b.ID)
}

func TestMultiAndLogger(t *testing.T) {
	var c Collector
	var seen []string
	m := Multi{&c, NewLogger(zaptest.NewLogger(t)), Func(func(n Notification) { seen = append(seen, n.Message) })}
	m.Notify(New(LevelError, "oops"))

	assert.Len(t, c.Drain(), 1)
	assert.Equal(t, []string{"oops"}, seen)
}
