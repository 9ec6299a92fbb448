package console

import (
	"bytes"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
)

func TestConsole(t *testing.T) {
	var out bytes.Buffer
	c := New(&out, slogt.New(t))

	c.Info("A に投票しました！")
	c.Warn("stale")
	c.Alert("failed")
	c.RedirectToLogin()

	assert.Equal(t, "A に投票しました！\n警告: stale\nエラー: failed\n"+loginHint+"\n", out.String())
}
