package obs

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeLogsFailureWithRequestID(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	ctx := WithRequestID(context.Background(), "abc")
	err := errors.New("boom")
	func() {
		defer Time(ctx, "store.Report")(&err)
	}()

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "abc", entry.Data["req_id"])
	assert.Equal(t, "store.Report", entry.Data["op"])
	assert.Equal(t, err, entry.Data[logrus.ErrorKey])
}

func TestRequestIDMissing(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
}
