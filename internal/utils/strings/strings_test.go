package strings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSingleLine(t *testing.T) {
	assert.Equal(t, "pg_dump: error: connection failed", SingleLine("pg_dump: error:\nconnection failed\r\n"))
	assert.Equal(t, `relation "orders" does not exist`, SingleLine(`relation "orders" does not exist`))
}

func TestWrapIndent(t *testing.T) {
	res := WrapIndent("there is no unique constraint matching given keys", 20, "  ")
	assert.Equal(t, "  there is no unique\n  constraint matching\n  given keys", res)

	long := "таблица_" + strings.Repeat("заказов", 5)
	res = WrapIndent("relation "+long+" is locked", 20, "")
	assert.Equal(t, []string{"relation", long, "is locked"}, strings.Split(res, "\n"))
}
