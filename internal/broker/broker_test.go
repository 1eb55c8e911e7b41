package broker

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestRetryCount(t *testing.T) {
	tests := []struct {
		name    string
		headers amqp.Table
		want    int64
	}{
		{"nil headers", nil, 0},
		{"no x-death", amqp.Table{"other": "x"}, 0},
		{"wrong type", amqp.Table{"x-death": "nope"}, 0},
		{
			name: "counts submission queue deaths",
			headers: amqp.Table{"x-death": []any{
				amqp.Table{"queue": SubmissionRetryQueue, "count": int64(7)},
				amqp.Table{"queue": SubmissionValidatedQueue, "count": int64(2)},
			}},
			want: 2,
		},
		{
			name: "bad count",
			headers: amqp.Table{"x-death": []any{
				amqp.Table{"queue": SubmissionValidatedQueue, "count": "two"},
			}},
			want: 0,
		},
		{
			name: "ignores non-table entries",
			headers: amqp.Table{"x-death": []any{
				"garbage",
				amqp.Table{"queue": SubmissionValidatedQueue, "count": int64(1)},
			}},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RetryCount(tt.headers))
		})
	}
}
