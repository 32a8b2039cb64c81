package plugin

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListOptions_LikePattern(t *testing.T) {
	tests := []struct {
		filter string
		want   string
	}{
		{"", ""},
		{"user", "%user%"},
		{"us%", "us%"},
		{"us*", "us%"},
		{"*_log", "%_log"},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			assert.Equal(t, tt.want, ListOptions{Filter: tt.filter}.LikePattern())
		})
	}
}

func TestListOptions_Match(t *testing.T) {
	sub := ListOptions{Filter: "user"}
	assert.True(t, sub.Match("public.t_user_info"))
	assert.True(t, sub.Match("USERS"))
	assert.False(t, sub.Match("orders"))

	prefix := ListOptions{Filter: "us%"}
	assert.True(t, prefix.Match("users"))
	assert.False(t, prefix.Match("t_users"), "explicit wildcard is not wrapped")

	single := ListOptions{Filter: "t_*"}
	assert.True(t, single.Match("t1"), "'_' matches one character in an explicit pattern")
}

func TestListOptions_UnderscoreIsLiteralInSubstring(t *testing.T) {
	lo := ListOptions{Filter: "user_id"}
	assert.Equal(t, "%user_id%", lo.LikePattern())
	assert.True(t, lo.Match("t_user_id_map"))
	assert.True(t, lo.Match("USER_ID"))
	assert.False(t, lo.Match("userXid"))

	assert.Equal(t, []string{"user_id", "t_user_id"}, lo.Refine([]string{"user_id", "userXid", "t_user_id", "user1id"}))
	assert.Equal(t, []string{"users", "user1"}, ListOptions{Filter: "user"}.Refine([]string{"users", "user1"}))
	assert.Equal(t, []string{"t1", "t_2"}, ListOptions{Filter: "t_*"}.Refine([]string{"t1", "t_2"}))
}

func TestListOptions_ApplyTruncatesInOrder(t *testing.T) {
	var names []string
	for i := 9; i >= 0; i-- {
		names = append(names, fmt.Sprintf("table_%d", i))
	}

	got := ListOptions{Size: 3}.Apply(names)
	assert.Equal(t, []string{"table_0", "table_1", "table_2"}, got)

	all := ListOptions{}.Apply(names)
	assert.Len(t, all, 10)
}

func TestParseListOptions(t *testing.T) {
	lo, err := ParseListOptions("JDBC-Mysql", map[string]string{OptionFilterName: " user ", OptionSize: "3"})
	require.NoError(t, err)
	assert.Equal(t, ListOptions{Filter: "user", Size: 3}, lo)

	lo, err = ParseListOptions("JDBC-Mysql", nil)
	require.NoError(t, err)
	assert.Equal(t, ListOptions{}, lo)

	_, err = ParseListOptions("JDBC-Mysql", map[string]string{OptionSize: "ten"})
	assert.ErrorIs(t, err, ErrConfiguration)
}
