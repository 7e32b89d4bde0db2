package metrics

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestFlattenEntry(t *testing.T) {
	entry := logrus.NewEntry(logrus.StandardLogger())
	entry.Message = "withdraw rejected"
	assert.Equal(t, "withdraw rejected", flattenEntry(entry))

	entry = entry.WithFields(logrus.Fields{
		"method": "withdraw",
		"vault":  "5Hp",
	}).WithError(errors.New("expired"))
	entry.Message = "withdraw rejected"

	assert.Equal(
		t,
		`message="withdraw rejected", error="expired", data={"method":"withdraw","vault":"5Hp"}`,
		flattenEntry(entry),
	)
}
